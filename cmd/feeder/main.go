// Feeder replays historical ticks from a CSV file over a publish socket,
// standing in for a live market-data producer during backtests.
//
// CSV layout (header optional): timestamp_ms,symbol,price,volume
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/yanun0323/logs"
)

type tickRecord struct {
	TimestampMillis int64   `json:"timestamp_ms"`
	Symbol          string  `json:"symbol"`
	Price           float64 `json:"price"`
	Volume          float64 `json:"volume"`
}

func main() {
	file := flag.String("file", "ticks.csv", "CSV tick file")
	endpoint := flag.String("endpoint", "tcp://127.0.0.1:5555", "Publish endpoint")
	delay := flag.Duration("delay", 10*time.Millisecond, "Delay between ticks")
	warmup := flag.Duration("warmup", time.Second, "Wait for subscribers before the first tick")
	flag.Parse()

	f, err := os.Open(*file)
	if err != nil {
		logs.Errorf("open tick file: %+v", err)
		os.Exit(1)
	}
	defer f.Close()

	ctx := context.Background()
	pub := zmq4.NewPub(ctx)
	if err := pub.Listen(*endpoint); err != nil {
		logs.Errorf("bind %s: %+v", *endpoint, err)
		os.Exit(1)
	}
	defer pub.Close()

	// Subscribers that connect after the first publish miss it; give
	// them a moment to arrive.
	time.Sleep(*warmup)

	reader := csv.NewReader(f)
	sent := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			logs.Warnf("csv read: %+v", err)
			continue
		}
		tick, ok := parseRow(row)
		if !ok {
			continue
		}
		payload, err := json.Marshal(tick)
		if err != nil {
			logs.Warnf("marshal tick: %+v", err)
			continue
		}
		if err := pub.Send(zmq4.NewMsg(payload)); err != nil {
			logs.Errorf("publish tick: %+v", err)
			os.Exit(1)
		}
		sent++
		time.Sleep(*delay)
	}

	logs.Infof("published %d ticks from %s", sent, *file)
}

func parseRow(row []string) (tickRecord, bool) {
	if len(row) < 4 {
		logs.Warnf("short csv row %v, skipped", row)
		return tickRecord{}, false
	}
	ts, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		// Header row or junk.
		return tickRecord{}, false
	}
	price, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		logs.Warnf("bad price in row %v, skipped", row)
		return tickRecord{}, false
	}
	volume, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		logs.Warnf("bad volume in row %v, skipped", row)
		return tickRecord{}, false
	}
	return tickRecord{
		TimestampMillis: ts,
		Symbol:          row[1],
		Price:           price,
		Volume:          volume,
	}, true
}
