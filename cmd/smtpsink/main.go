// Command smtpsink runs a non-delivering SMTP sink server for use in
// integration tests. It binds a port, accepts connections, and prints
// a one-line summary of each captured message as it arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dumbster-go/smtpsink"
)

func main() {
	port := flag.Int("port", 1025, "port to listen on (0 for an OS-assigned port)")
	host := flag.String("hostname", "localhost", "hostname stamped into the greeting/closing banners")
	flag.Parse()

	logger := smtpsink.DefaultLogger()

	server, err := smtpsink.Start(*port, smtpsink.WithHostname(*host), smtpsink.WithLogger(logger))
	if err != nil {
		log.Printf("failed to listen: %v", err)
		os.Exit(1)
	}

	fmt.Printf("smtpsink listening on port %d\n", server.Port())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go pollAndPrint(ctx, server)

	<-ctx.Done()
	fmt.Println("shutting down...")
	server.Stop()
}

func pollAndPrint(ctx context.Context, server *smtpsink.Server) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, msg := range server.Received().Poll() {
				fmt.Printf("received '%s' from: %s to: %s\n",
					msg.HeaderValue("Subject"),
					msg.HeaderValue("From"),
					msg.HeaderValue("To"))
			}
		}
	}
}
