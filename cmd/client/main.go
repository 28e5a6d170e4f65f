// Command client is a small CLI for exercising a running exchange
// server: place a market or limit order, cancel one, or modify one, and
// print the report that comes back.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"

	"matchbook/internal/engine"
	mnet "matchbook/internal/net"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:9001", "exchange server address")
	action := flag.String("action", "place", "one of: place, cancel, modify")
	owner := flag.String("owner", "cli", "owner tag attached to new orders")
	side := flag.String("side", "buy", "buy or sell")
	orderType := flag.String("type", "limit", "market or limit")
	price := flag.Int64("price", 0, "limit price (ignored for market orders)")
	size := flag.Int64("size", 1, "order size")
	orderID := flag.Uint64("id", 0, "order id, for cancel/modify")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	switch *action {
	case "place":
		sideVal, err := parseSide(*side)
		if err != nil {
			fail(err)
		}
		typeVal, err := parseType(*orderType)
		if err != nil {
			fail(err)
		}
		frame, err := mnet.EncodeNewOrder(mnet.NewOrderRequest{
			Side: sideVal, Type: typeVal, Price: *price, Size: *size, Owner: *owner,
		})
		if err != nil {
			fail(err)
		}
		if _, err := conn.Write(frame); err != nil {
			fail(err)
		}
	case "cancel":
		if _, err := conn.Write(mnet.EncodeCancelOrder(mnet.CancelOrderRequest{OrderID: *orderID})); err != nil {
			fail(err)
		}
	case "modify":
		if _, err := conn.Write(mnet.EncodeModifyOrder(mnet.ModifyOrderRequest{OrderID: *orderID, Price: *price, Size: *size})); err != nil {
			fail(err)
		}
	default:
		fail(fmt.Errorf("unknown action %q", *action))
	}

	report, err := mnet.ReadReport(conn)
	if err != nil {
		fail(err)
	}
	printReport(report)
}

func parseSide(s string) (engine.Side, error) {
	switch s {
	case "buy":
		return engine.Buy, nil
	case "sell":
		return engine.Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

func parseType(s string) (engine.TicketType, error) {
	switch s {
	case "market":
		return engine.MarketTicket, nil
	case "limit":
		return engine.LimitTicket, nil
	default:
		return 0, fmt.Errorf("unknown order type %q", s)
	}
}

func printReport(r mnet.Report) {
	switch r.Kind {
	case mnet.ReportRejected:
		fmt.Printf("rejected: %s\n", r.Err)
	case mnet.ReportFilled:
		fmt.Printf("filled: size=%d notional=%d\n", r.Size, r.Notional)
	case mnet.ReportRested:
		fmt.Printf("rested: id=%d price=%d size=%d\n", r.OrderID, r.Price, r.Size)
	default:
		fmt.Printf("unknown report kind %d\n", r.Kind)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
