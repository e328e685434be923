// Command example walks through the printcenter services against an
// in-memory store: seed the demo fixture, place and approve an order, then
// print the order and ROI reports.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/vsinha/printcenter/pkg/application/dto"
	"github.com/vsinha/printcenter/pkg/application/services"
	"github.com/vsinha/printcenter/pkg/domain/entities"
	"github.com/vsinha/printcenter/pkg/infrastructure/events"
	"github.com/vsinha/printcenter/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/printcenter/pkg/infrastructure/seed"
	"github.com/vsinha/printcenter/pkg/interfaces/cli/output"
)

func main() {
	ctx := context.Background()
	logger := zerolog.Nop()

	store := memory.NewStore()
	defer store.Close()

	fixture, err := seed.Demo()
	if err != nil {
		log.Fatal(err)
	}
	res, err := seed.NewSeeder(store, time.Now, time.UTC, logger).Apply(ctx, fixture)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Seeded %s services and %s items\n\n", res.Services, res.Inventory)

	svc, err := services.New(services.Options{
		Store:    store,
		Events:   events.NewInMemoryEventStore(logger),
		Clock:    time.Now,
		Location: time.UTC,
		Logger:   logger,
	})
	if err != nil {
		log.Fatal(err)
	}
	actor := services.SystemActor()

	catalog, err := svc.Catalog.ListServices(ctx, actor)
	if err != nil {
		log.Fatal(err)
	}
	var cards *entities.Service
	for _, s := range catalog {
		if s.Name == "Business Cards" {
			cards = s
		}
	}
	if cards == nil {
		log.Fatal("demo fixture has no Business Cards service")
	}

	// Fill every required field; radio fields are not required on this form.
	var values []entities.FieldValue
	for _, f := range cards.Fields {
		if !f.IsRequired {
			continue
		}
		var v interface{} = "Dr. Sara Example"
		switch f.Type {
		case entities.FieldNumber:
			v = 200
		case entities.FieldFile:
			v = "appointment-decision.pdf"
		}
		values = append(values, entities.FieldValue{FieldID: f.ID, Value: v})
	}

	order, err := svc.Orders.Create(ctx, actor, dto.CreateOrderRequest{
		ServiceID:   cards.ID,
		Priority:    entities.PriorityMedium,
		Department:  "Computer Science",
		FieldValues: values,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Created order %s (%s)\n", order.Code, order.Status)

	order, err = svc.Orders.Approve(ctx, actor, order.ID, dto.DecisionInput{Comment: "approved in walkthrough"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Approved order %s (%s)\n\n", order.Code, order.Status)

	orders, err := svc.Reports.Orders(ctx, actor, dto.OrderReportFilter{})
	if err != nil {
		log.Fatal(err)
	}
	roi, err := svc.Reports.ROI(ctx, actor)
	if err != nil {
		log.Fatal(err)
	}
	tables := append(output.OrdersTables(orders), output.ROITables(roi)...)
	if err := output.Generate(os.Stdout, output.FormatText, nil, tables...); err != nil {
		log.Fatal(err)
	}
}
