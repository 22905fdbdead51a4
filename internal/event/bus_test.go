package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestPublishDispatchesInSubscriptionOrder(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	var order []string
	bus.Subscribe(TypeSalePaid, func(ctx context.Context, evt Event) error {
		order = append(order, "first")
		return nil
	})
	bus.Subscribe(TypeSalePaid, func(ctx context.Context, evt Event) error {
		order = append(order, "second")
		return nil
	})

	bus.Publish(context.Background(), NewSalePaid(uuid.New()))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestPublishContinuesAfterHandlerError(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	called := false
	bus.Subscribe(TypeSalePaid, func(ctx context.Context, evt Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(TypeSalePaid, func(ctx context.Context, evt Event) error {
		called = true
		return nil
	})

	bus.Publish(context.Background(), NewSalePaid(uuid.New()))
	assert.True(t, called)
}

func TestPublishRecoversHandlerPanic(t *testing.T) {
	bus := NewBus(zerolog.Nop())

	called := false
	bus.Subscribe(TypeSalePaid, func(ctx context.Context, evt Event) error {
		panic("handler exploded")
	})
	bus.Subscribe(TypeSalePaid, func(ctx context.Context, evt Event) error {
		called = true
		return nil
	})

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), NewSalePaid(uuid.New()))
	})
	assert.True(t, called)
}

func TestPublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus(zerolog.Nop())
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), NewSalePaid(uuid.New()))
	})
}
