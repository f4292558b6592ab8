package checkoutsvc

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/snackline/backend/internal/service/models/order"
)

// Payment-intent metadata keys. The encoded order request is spread over
// numbered chunks because provider metadata values cap out around 500
// characters; order_created/order_id form the idempotence marker written after
// the order exists.
const (
	metaOrderCreated = "order_created"
	metaOrderID      = "order_id"
	metaOrderParts   = "order_parts"
	metaChunkPrefix  = "order_data_b64_"

	// Legacy single-field format: raw JSON, no chunking. Still decoded for
	// intents created before the chunked format shipped.
	metaLegacyOrderData = "order_data"

	metadataChunkSize = 495
)

// encodeOrderMetadata serializes an order request into chunked base64 metadata
// fields, with the created marker cleared.
func encodeOrderMetadata(req *order.CreateRequest) (map[string]string, error) {
	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order request: %w", err)
	}

	b64 := base64.StdEncoding.EncodeToString(raw)
	md := map[string]string{
		metaOrderCreated: "0",
	}
	parts := 0
	for i := 0; i < len(b64); i += metadataChunkSize {
		end := i + metadataChunkSize
		if end > len(b64) {
			end = len(b64)
		}
		md[metaChunkPrefix+strconv.Itoa(parts)] = b64[i:end]
		parts++
	}
	md[metaOrderParts] = strconv.Itoa(parts)

	return md, nil
}

// decodeOrderMetadata reconstructs an order request from intent metadata,
// trying the legacy single field first, then the chunked format.
func decodeOrderMetadata(md map[string]string) (*order.CreateRequest, error) {
	if single := md[metaLegacyOrderData]; single != "" {
		var req order.CreateRequest
		if err := json.Unmarshal([]byte(single), &req); err == nil {
			return &req, nil
		}
		// Corrupt legacy field: fall through to the chunked format.
	}

	parts, _ := strconv.Atoi(md[metaOrderParts])
	if parts <= 0 {
		return nil, fmt.Errorf("%w: no order data in metadata", ErrMetadataDecode)
	}

	b64 := make([]byte, 0, parts*metadataChunkSize)
	for i := 0; i < parts; i++ {
		key := metaChunkPrefix + strconv.Itoa(i)
		chunk := md[key]
		if chunk == "" {
			return nil, fmt.Errorf("%w: missing metadata chunk %s", ErrMetadataDecode, key)
		}
		b64 = append(b64, chunk...)
	}

	raw, err := base64.StdEncoding.DecodeString(string(b64))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataDecode, err)
	}

	var req order.CreateRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMetadataDecode, err)
	}

	return &req, nil
}
