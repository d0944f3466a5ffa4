package pipeline

import (
	"context"
	"errors"

	contractx "github.com/tanpawarit/ina-negotiation/agent/contract"
)

// Defaults used until a real price book backs the service.
const (
	DefaultMAM         = 150.0
	DefaultAskingPrice = 200.0
)

// StaticPriceSource returns the same floor and asking price for every session.
type StaticPriceSource struct {
	MAM         float64
	AskingPrice float64
}

var _ contractx.PriceSource = StaticPriceSource{}

func NewStaticPriceSource(mam float64, askingPrice float64) (StaticPriceSource, error) {
	if mam <= 0 || askingPrice <= 0 {
		return StaticPriceSource{}, errors.New("mam and asking price must be positive")
	}
	if askingPrice < mam {
		return StaticPriceSource{}, errors.New("asking price must not be below mam")
	}
	return StaticPriceSource{MAM: mam, AskingPrice: askingPrice}, nil
}

func (s StaticPriceSource) Prices(ctx context.Context, sessionID string) (float64, float64, error) {
	return s.MAM, s.AskingPrice, nil
}
