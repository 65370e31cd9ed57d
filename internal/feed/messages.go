package feed

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ofisentinel/sentinel/internal/errs"
	"github.com/ofisentinel/sentinel/internal/model"
)

const instType = "USDT-FUTURES"

// subscribeRequest is the single frame sent on entering Subscribed,
// requesting both the book and trade channels for one symbol.
type subscribeRequest struct {
	Op   string                `json:"op"`
	Args []subscribeRequestArg `json:"args"`
}

type subscribeRequestArg struct {
	InstType string `json:"instType"`
	Channel  string `json:"channel"`
	InstID   string `json:"instId"`
}

func buildSubscribeFrame(symbol string) ([]byte, error) {
	req := subscribeRequest{
		Op: "subscribe",
		Args: []subscribeRequestArg{
			{InstType: instType, Channel: "books", InstID: symbol},
			{InstType: instType, Channel: "trade", InstID: symbol},
		},
	}
	return json.Marshal(req)
}

// envelope is the common wrapper around book and trade push messages. The
// core is tolerant of unknown fields — Data is decoded per-channel only
// after Arg.Channel is known.
type envelope struct {
	Arg struct {
		Channel string `json:"channel"`
		InstID  string `json:"instId"`
	} `json:"arg"`
	Data json.RawMessage `json:"data"`
}

type bookPayload struct {
	Bids [][2]string `json:"bids"`
	Asks [][2]string `json:"asks"`
	Ts   string      `json:"ts"`
}

type tradePayload struct {
	Ts    string `json:"ts"`
	Price string `json:"price"`
	Size  string `json:"size"`
	Side  string `json:"side"`
}

// isAckFrame matches the venue's pong/ack text frames, which carry no
// structured payload and are simply ignored.
func isAckFrame(raw []byte) bool {
	s := strings.ToLower(strings.TrimSpace(string(raw)))
	return s == "pong" || s == "ack"
}

// isErrorFrame matches the venue's error frames by substring rather than
// a structured error schema.
func isErrorFrame(raw []byte) bool {
	s := strings.ToLower(string(raw))
	return strings.Contains(s, `"event":"error"`) || strings.Contains(s, `"code":"3`)
}

// parseEnvelope decodes the outer {arg:{channel,instId}, data:[...]}
// wrapper. A frame that isn't valid JSON at all is the caller's concern —
// the streaming loop treats it leniently, the same as an ack/ping frame.
func parseEnvelope(raw []byte) (envelope, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return envelope{}, fmt.Errorf("%w: %v", errs.ErrPayloadParse, err)
	}
	return env, nil
}

// parseBookSnapshot parses only data[0] of a "books" envelope — the
// venue sends a full depth snapshot per update, so later elements of the
// array (if any) are ignored by design, not by omission.
func parseBookSnapshot(symbol string, data json.RawMessage, nowMS int64) (model.OrderBookSnapshot, error) {
	var payloads []bookPayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return model.OrderBookSnapshot{}, fmt.Errorf("%w: book envelope: %v", errs.ErrPayloadParse, err)
	}
	if len(payloads) == 0 {
		return model.OrderBookSnapshot{}, fmt.Errorf("%w: book envelope has no elements", errs.ErrPayloadParse)
	}
	p := payloads[0]

	bids, err := parseLevels(p.Bids)
	if err != nil {
		return model.OrderBookSnapshot{}, err
	}
	asks, err := parseLevels(p.Asks)
	if err != nil {
		return model.OrderBookSnapshot{}, err
	}

	ts := nowMS
	if p.Ts != "" {
		if parsed, err := decimal.NewFromString(p.Ts); err == nil {
			ts = parsed.IntPart()
		}
	}

	return model.OrderBookSnapshot{
		Symbol:      symbol,
		Bids:        bids,
		Asks:        asks,
		TimestampMS: ts,
	}, nil
}

func parseLevels(raw [][2]string) ([]model.OrderBookLevel, error) {
	levels := make([]model.OrderBookLevel, 0, len(raw))
	for _, pair := range raw {
		price, err := decimal.NewFromString(pair[0])
		if err != nil {
			return nil, fmt.Errorf("%w: level price %q: %v", errs.ErrPayloadParse, pair[0], err)
		}
		qty, err := decimal.NewFromString(pair[1])
		if err != nil {
			return nil, fmt.Errorf("%w: level quantity %q: %v", errs.ErrPayloadParse, pair[1], err)
		}
		levels = append(levels, model.OrderBookLevel{Price: price, Quantity: qty})
	}
	return levels, nil
}

// parseTrades parses every element of a "trade" envelope; malformed
// entries are skipped individually rather than dropping the whole update.
func parseTrades(symbol string, data json.RawMessage, nowMS int64) ([]model.TradeData, []error) {
	var payloads []tradePayload
	if err := json.Unmarshal(data, &payloads); err != nil {
		return nil, []error{fmt.Errorf("%w: trade envelope: %v", errs.ErrPayloadParse, err)}
	}

	var trades []model.TradeData
	var skipped []error
	for _, p := range payloads {
		trade, err := parseTrade(symbol, p, nowMS)
		if err != nil {
			skipped = append(skipped, err)
			continue
		}
		trades = append(trades, trade)
	}
	return trades, skipped
}

func parseTrade(symbol string, p tradePayload, nowMS int64) (model.TradeData, error) {
	price, err := decimal.NewFromString(p.Price)
	if err != nil {
		return model.TradeData{}, fmt.Errorf("%w: trade price %q: %v", errs.ErrPayloadParse, p.Price, err)
	}
	qty, err := decimal.NewFromString(p.Size)
	if err != nil {
		return model.TradeData{}, fmt.Errorf("%w: trade size %q: %v", errs.ErrPayloadParse, p.Size, err)
	}

	var side model.Side
	switch strings.ToLower(p.Side) {
	case "buy":
		side = model.SideBuy
	case "sell":
		side = model.SideSell
	default:
		return model.TradeData{}, fmt.Errorf("%w: unrecognized trade side %q", errs.ErrPayloadParse, p.Side)
	}

	ts := nowMS
	if p.Ts != "" {
		if parsed, err := decimal.NewFromString(p.Ts); err == nil {
			ts = parsed.IntPart()
		}
	}

	return model.TradeData{
		Symbol:      symbol,
		Price:       price,
		Quantity:    qty,
		Side:        side,
		TimestampMS: ts,
	}, nil
}
