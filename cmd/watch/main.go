// Command watch connects to a rover's control channel and prints every
// state broadcast. Useful for watching the vehicle from a laptop while
// driving or tuning.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-rover/pkg/protocol"
)

func main() {
	addr := flag.String("addr", "localhost:8080", "rover address")
	flag.Parse()

	url := fmt.Sprintf("ws://%s/ws/control", *addr)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", url, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("watching %s\n", url)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			// The channel mixes plain state broadcasts with enveloped
			// replies (errors, distance queries). Enveloped frames carry
			// a type; everything else is a state snapshot.
			msg, err := protocol.ParseMessage(data)
			if err != nil || msg.Type == "" {
				fmt.Println(string(data))
				continue
			}
			fmt.Printf("%s: %s\n", msg.Type, msg.Data)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	select {
	case <-sig:
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	case <-done:
	}
}
