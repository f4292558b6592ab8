package checkoutsvc

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/snackline/backend/internal/service/models/order"
)

func bigRequest() *order.CreateRequest {
	fee := decimal.NewFromFloat(4.50)
	req := &order.CreateRequest{
		Name:         "Jean Dupont",
		Address:      "12 Rue de la Paix, 75002 Paris",
		Phone:        "+33612345678",
		DeliveryMode: order.DeliveryModeDelivery,
		PaymentMode:  order.PaymentModeCard,
		Fee:          &fee,
	}
	for i := int64(1); i <= 20; i++ {
		req.Items = append(req.Items, order.ItemRequest{
			ProductID: i,
			Quantity:  2,
			Choices: []order.ChoiceRequest{
				{OptionID: i, ChoiceOptionID: i * 10},
				{OptionID: i + 1, ChoiceOptionID: i*10 + 1},
			},
		})
	}
	return req
}

func TestMetadataRoundTrip(t *testing.T) {
	req := bigRequest()

	md, err := encodeOrderMetadata(req)
	if err != nil {
		t.Fatalf("encodeOrderMetadata: %v", err)
	}

	if md[metaOrderCreated] != "0" {
		t.Errorf("order_created = %q, want %q", md[metaOrderCreated], "0")
	}
	parts, err := strconv.Atoi(md[metaOrderParts])
	if err != nil || parts < 2 {
		t.Fatalf("order_parts = %q, want a count >= 2 for a large request", md[metaOrderParts])
	}
	for i := 0; i < parts; i++ {
		chunk := md[metaChunkPrefix+strconv.Itoa(i)]
		if chunk == "" {
			t.Fatalf("chunk %d missing", i)
		}
		if len(chunk) > metadataChunkSize {
			t.Errorf("chunk %d has %d chars, cap is %d", i, len(chunk), metadataChunkSize)
		}
	}

	got, err := decodeOrderMetadata(md)
	if err != nil {
		t.Fatalf("decodeOrderMetadata: %v", err)
	}
	if got.Name != req.Name || got.Phone != req.Phone || len(got.Items) != len(req.Items) {
		t.Errorf("round trip lost data: got %+v", got)
	}
	if got.Fee == nil || !got.Fee.Equal(*req.Fee) {
		t.Errorf("fee = %v, want %v", got.Fee, req.Fee)
	}
	if got.Items[4].Choices[1].ChoiceOptionID != 51 {
		t.Errorf("choice = %d, want 51", got.Items[4].Choices[1].ChoiceOptionID)
	}
}

func TestDecodeLegacyFormat(t *testing.T) {
	req := &order.CreateRequest{
		Name:        "Marie",
		Address:     "3 Avenue Foch",
		Phone:       "+33700000000",
		PaymentMode: order.PaymentModeCard,
		Items:       []order.ItemRequest{{ProductID: 7, Quantity: 1}},
	}
	raw, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}

	// The legacy field holds raw JSON, not base64.
	got, err := decodeOrderMetadata(map[string]string{metaLegacyOrderData: string(raw)})
	if err != nil {
		t.Fatalf("decodeOrderMetadata: %v", err)
	}
	if got.Name != "Marie" || got.Items[0].ProductID != 7 {
		t.Errorf("legacy decode lost data: %+v", got)
	}
}

func TestDecodeCorruptLegacyFallsThroughToChunks(t *testing.T) {
	md, err := encodeOrderMetadata(bigRequest())
	if err != nil {
		t.Fatal(err)
	}
	md[metaLegacyOrderData] = "{not json"

	got, err := decodeOrderMetadata(md)
	if err != nil {
		t.Fatalf("decodeOrderMetadata: %v", err)
	}
	if got.Name != "Jean Dupont" {
		t.Errorf("name = %q, want %q", got.Name, "Jean Dupont")
	}
}

func TestDecodeErrors(t *testing.T) {
	valid, err := encodeOrderMetadata(bigRequest())
	if err != nil {
		t.Fatal(err)
	}

	missingChunk := map[string]string{}
	for k, v := range valid {
		missingChunk[k] = v
	}
	delete(missingChunk, metaChunkPrefix+"1")

	badBase64 := map[string]string{}
	for k, v := range valid {
		badBase64[k] = v
	}
	badBase64[metaChunkPrefix+"0"] = strings.Repeat("!", 20)

	tests := []struct {
		name string
		md   map[string]string
	}{
		{"empty metadata", map[string]string{}},
		{"zero parts", map[string]string{metaOrderParts: "0"}},
		{"missing chunk", missingChunk},
		{"invalid base64", badBase64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeOrderMetadata(tt.md)
			if !errors.Is(err, ErrMetadataDecode) {
				t.Errorf("err = %v, want ErrMetadataDecode", err)
			}
		})
	}
}
