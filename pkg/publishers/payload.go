package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// Message body limits. The AWS limits cover body and attributes together, so 1 KiB is held back
// for the attributes set by messageAttributes.
const (
	sqsMaxBodyBytes    = 256*1024 - 1024
	snsMaxBodyBytes    = 256*1024 - 1024
	pubsubMaxBodyBytes = 10*1000*1000 - 1024
)

// Message attribute keys set on every queue message.
const (
	AttrSource      = "source"
	AttrRecordCount = "record_count"
	AttrHasError    = "has_error"
	AttrTruncated   = "truncated"
)

// ErrPayloadTooLarge is returned when an event does not fit a message even with every record dropped.
var ErrPayloadTooLarge = errors.New("event does not fit in a queue message")

// message is an encoded event ready for a queue provider.
type message struct {
	Source     string
	Body       []byte
	Attributes map[string]string
}

// encodeMessage marshals evt into at most limit bytes. When the full event is too large, trailing
// records or rows are dropped (the oldest, given newest-first order) and the returned event is
// marked Truncated. A limit of zero or less disables the check.
func encodeMessage(evt Event, limit int) (message, Event, error) {
	body, err := json.Marshal(evt)
	if err != nil {
		return message{}, evt, fmt.Errorf("marshal event: %w", err)
	}

	if limit > 0 && len(body) > limit {
		var encErr error
		encode := func(n int) []byte {
			b, err := json.Marshal(evt.head(n))
			if err != nil {
				encErr = err
			}
			return b
		}

		// Smallest n whose encoding overflows; n-1 is the largest prefix that fits.
		n := sort.Search(evt.Size()+1, func(n int) bool { return len(encode(n)) > limit }) - 1
		if encErr != nil {
			return message{}, evt, fmt.Errorf("marshal event: %w", encErr)
		}
		if n < 0 {
			return message{}, evt, fmt.Errorf("%w: source %s exceeds %d bytes with no records", ErrPayloadTooLarge, evt.Source, limit)
		}
		evt = evt.head(n)
		body = encode(n)
	}

	return message{Source: evt.Source, Body: body, Attributes: messageAttributes(evt)}, evt, nil
}

// messageAttributes lets subscribers route or filter without decoding the body.
func messageAttributes(evt Event) map[string]string {
	return map[string]string{
		AttrSource:      evt.Source,
		AttrRecordCount: strconv.Itoa(evt.Size()),
		AttrHasError:    strconv.FormatBool(evt.Error != ""),
		AttrTruncated:   strconv.FormatBool(evt.Truncated),
	}
}

// attributeDataType maps an attribute key to its AWS data type.
func attributeDataType(key string) string {
	if key == AttrRecordCount {
		return "Number"
	}
	return "String"
}
