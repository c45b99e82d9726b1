// Console sends one operator command to a running engine and prints the
// reply. Commands: PING, STATUS, HALT.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/go-zeromq/zmq4"
)

func main() {
	endpoint := flag.String("endpoint", "tcp://127.0.0.1:5556", "Command endpoint")
	flag.Parse()

	cmd := "STATUS"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	req := zmq4.NewReq(context.Background())
	if err := req.Dial(*endpoint); err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *endpoint, err)
		os.Exit(1)
	}
	defer req.Close()

	if err := req.Send(zmq4.NewMsgString(cmd)); err != nil {
		fmt.Fprintf(os.Stderr, "send %s: %v\n", cmd, err)
		os.Exit(1)
	}
	reply, err := req.Recv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "receive reply: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(string(reply.Bytes()))
}
