package events

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"
)

func TestKafkaPublisherSendsJSON(t *testing.T) {
	producer := mocks.NewAsyncProducer(t, nil)
	producer.ExpectInputWithCheckerFunctionAndSucceed(func(val []byte) error {
		var ev StockChanged
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.ItemID != "item-1" || ev.OldLevel != 5 || ev.NewLevel != 3 {
			return fmt.Errorf("unexpected event %+v", ev)
		}
		return nil
	})

	p := NewKafkaPublisherWithProducer(producer, "stock-events")
	p.Publish(context.Background(), StockChanged{
		ItemID:   "item-1",
		OldLevel: 5,
		NewLevel: 3,
		Reason:   "SALE",
		At:       time.Now(),
	})

	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
}

func TestMultiFansOut(t *testing.T) {
	a, b := &Recorder{}, &Recorder{}
	Multi{a, Nop{}, b}.Publish(context.Background(), StockChanged{ItemID: "x"})

	if len(a.Events) != 1 || len(b.Events) != 1 {
		t.Fatalf("Expected both recorders to receive the event, got %d and %d", len(a.Events), len(b.Events))
	}
}
