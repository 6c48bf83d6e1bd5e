// Command tickdemo runs the whole stack with no hardware: the host
// simulation platform fires a software alarm, the ticker service owns
// it, and this process is just another bus client watching events.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"timerhal-go/bus"
	"timerhal-go/ltimer"
	"timerhal-go/platform"
	"timerhal-go/platform/hostsim"
	"timerhal-go/services/ticker"
	"timerhal-go/types"
)

func main() {
	b := bus.NewBus(16)
	tickerConn := b.NewConnection("ticker")
	uiConn := b.NewConnection("ui")

	builder, ok := platform.Lookup(hostsim.Name)
	if !ok {
		log.Fatal("hostsim platform not linked")
	}

	// The alarm cannot fire before the first set request, and svc is
	// assigned long before that.
	var svc *ticker.Service
	lt, err := builder.Build(platform.BuildInput{
		Deliver: func(irq ltimer.IRQ) { svc.InjectIRQ(irq) },
	})
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	svc = ticker.New(tickerConn, lt, ticker.Config{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Run(ctx)
		close(done)
	}()

	states := uiConn.Subscribe(ticker.StateTopic())
	<-states.Channel() // service is live once the first state lands
	uiConn.Unsubscribe(states)

	fired := uiConn.Subscribe(ticker.FiredTopic())
	defer uiConn.Unsubscribe(fired)

	fmt.Printf("resolution: %dns\n", mustNS(request(ctx, uiConn, "resolution", nil)))

	fmt.Println("periodic 200ms:")
	mustOK(request(ctx, uiConn, "set",
		types.SetTimeout{Kind: "periodic", NS: uint64(200 * time.Millisecond)}))
	for i := 0; i < 3; i++ {
		printFired(<-fired.Channel())
	}

	fmt.Println("relative 100ms:")
	mustOK(request(ctx, uiConn, "set",
		types.SetTimeout{Kind: "relative", NS: uint64(100 * time.Millisecond)}))
	printFired(<-fired.Channel())

	now := mustNS(request(ctx, uiConn, "time", nil))
	fmt.Printf("time: %s, drops: %d\n", time.Duration(now), svc.Drops())

	cancel()
	<-done
}

func printFired(m *bus.Message) {
	ev, ok := m.Payload.(types.Fired)
	if !ok {
		log.Fatalf("unexpected event payload: %#v", m.Payload)
	}
	fmt.Printf("  fired seq=%d t=%s\n", ev.Seq, time.Duration(ev.NS))
}

func request(ctx context.Context, c *bus.Connection, verb string, payload any) any {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	reply, err := c.RequestWait(ctx, c.NewMessage(ticker.CtlTopic(verb), payload, false))
	if err != nil {
		log.Fatalf("%s: %v", verb, err)
	}
	return reply.Payload
}

func mustOK(payload any) {
	if r, ok := payload.(types.OKReply); !ok || !r.OK {
		log.Fatalf("request refused: %#v", payload)
	}
}

func mustNS(payload any) uint64 {
	r, ok := payload.(types.TimeReply)
	if !ok || !r.OK {
		log.Fatalf("request refused: %#v", payload)
	}
	return r.NS
}
