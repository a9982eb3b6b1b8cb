// Copyright 2026 The Msgboard Authors
// SPDX-License-Identifier: Apache-2.0

package wire

import (
	"fmt"
	"unicode/utf8"

	"github.com/rolandweber/Pityoulish-sub000/lib/tlv"
)

// BuildListMessages encodes a LIST_MESSAGES request. An empty marker
// means "no marker field".
func BuildListMessages(limit int, marker string) ([]byte, error) {
	if limit < MinLimit || limit > MaxLimit {
		return nil, fmt.Errorf("wire: limit %d out of range %d..%d", limit, MinLimit, MaxLimit)
	}
	if marker != "" && !ValidToken(marker) {
		return nil, fmt.Errorf("wire: invalid marker %q", marker)
	}

	outer, buffer, err := beginPDU(tlv.TypeListMessages, tlv.HeaderSize+1+tlv.HeaderSize+len(marker))
	if err != nil {
		return nil, err
	}
	limitChild, err := outer.AppendChild(tlv.TypeLimit)
	if err != nil {
		return nil, err
	}
	if err := limitChild.SetByte(byte(limit)); err != nil {
		return nil, err
	}
	if err := outer.AddToLength(limitChild.Size()); err != nil {
		return nil, err
	}
	if marker != "" {
		if err := appendTextChild(outer, tlv.TypeMarker, marker); err != nil {
			return nil, err
		}
	}
	return buffer[:outer.End()], nil
}

// BuildPutMessage encodes a PUT_MESSAGE request.
func BuildPutMessage(ticket, text string) ([]byte, error) {
	if !ValidToken(ticket) {
		return nil, fmt.Errorf("wire: invalid ticket token %q", ticket)
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("wire: message text is not valid UTF-8")
	}

	outer, buffer, err := beginPDU(tlv.TypePutMessage,
		tlv.HeaderSize+len(ticket)+tlv.HeaderSize+len(text))
	if err != nil {
		return nil, err
	}
	if err := appendTextChild(outer, tlv.TypeTicket, ticket); err != nil {
		return nil, err
	}
	if err := appendTextChild(outer, tlv.TypeText, text); err != nil {
		return nil, err
	}
	return buffer[:outer.End()], nil
}

// BuildObtainTicket encodes an OBTAIN_TICKET request.
func BuildObtainTicket(originator string) ([]byte, error) {
	if !ValidOriginator(originator) {
		return nil, fmt.Errorf("wire: invalid originator %q", originator)
	}
	outer, buffer, err := beginPDU(tlv.TypeObtainTicket, tlv.HeaderSize+len(originator))
	if err != nil {
		return nil, err
	}
	if err := appendTextChild(outer, tlv.TypeOriginator, originator); err != nil {
		return nil, err
	}
	return buffer[:outer.End()], nil
}

// BuildReturnTicket encodes a RETURN_TICKET request.
func BuildReturnTicket(ticket string) ([]byte, error) {
	return buildTicketRequest(tlv.TypeReturnTicket, ticket)
}

// BuildReplaceTicket encodes a REPLACE_TICKET request.
func BuildReplaceTicket(ticket string) ([]byte, error) {
	return buildTicketRequest(tlv.TypeReplaceTicket, ticket)
}

func buildTicketRequest(typ tlv.Type, ticket string) ([]byte, error) {
	if !ValidToken(ticket) {
		return nil, fmt.Errorf("wire: invalid ticket token %q", ticket)
	}
	outer, buffer, err := beginPDU(typ, tlv.HeaderSize+len(ticket))
	if err != nil {
		return nil, err
	}
	if err := appendTextChild(outer, tlv.TypeTicket, ticket); err != nil {
		return nil, err
	}
	return buffer[:outer.End()], nil
}

// BuildInfoResponse encodes an INFO_RESPONSE wrapping text.
func BuildInfoResponse(text string) ([]byte, error) {
	return buildTextResponse(tlv.TypeInfoResponse, text)
}

// BuildErrorResponse encodes an ERROR_RESPONSE wrapping text.
func BuildErrorResponse(text string) ([]byte, error) {
	return buildTextResponse(tlv.TypeErrorResponse, text)
}

// BuildErrorResponseFromError encodes an ERROR_RESPONSE from an
// internal fault. The wire shape is the same as for a rejected
// request; clients cannot tell the two apart, so no implementation
// detail leaks.
func BuildErrorResponseFromError(err error) ([]byte, error) {
	return buildTextResponse(tlv.TypeErrorResponse, err.Error())
}

func buildTextResponse(typ tlv.Type, text string) ([]byte, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("wire: response text is not valid UTF-8")
	}
	outer, buffer, err := beginPDU(typ, tlv.HeaderSize+3*len(text))
	if err != nil {
		return nil, err
	}
	if err := appendTextChild(outer, tlv.TypeText, text); err != nil {
		return nil, err
	}
	return buffer[:outer.End()], nil
}

// BuildTicketGrant encodes a TICKET_GRANT response.
func BuildTicketGrant(ticket string) ([]byte, error) {
	if !ValidToken(ticket) {
		return nil, fmt.Errorf("wire: invalid ticket token %q", ticket)
	}
	outer, buffer, err := beginPDU(tlv.TypeTicketGrant, tlv.HeaderSize+len(ticket))
	if err != nil {
		return nil, err
	}
	if err := appendTextChild(outer, tlv.TypeTicket, ticket); err != nil {
		return nil, err
	}
	return buffer[:outer.End()], nil
}

// BuildMessageBatch encodes a MESSAGE_BATCH response: MARKER, the
// MISSED indicator when set, then the messages oldest first.
func BuildMessageBatch(batch MessageBatch) ([]byte, error) {
	if !ValidToken(batch.Marker) {
		return nil, fmt.Errorf("wire: invalid batch marker %q", batch.Marker)
	}

	// Conservative estimate: three bytes per character covers any
	// UTF-8 text the protocol admits.
	estimate := tlv.HeaderSize + len(batch.Marker) + tlv.HeaderSize
	for _, message := range batch.Messages {
		estimate += tlv.HeaderSize +
			tlv.HeaderSize + len(message.Originator) +
			tlv.HeaderSize + len(message.Timestamp) +
			tlv.HeaderSize + 3*len(message.Text)
	}

	outer, buffer, err := beginPDU(tlv.TypeMessageBatch, estimate)
	if err != nil {
		return nil, err
	}
	if err := appendTextChild(outer, tlv.TypeMarker, batch.Marker); err != nil {
		return nil, err
	}
	if batch.Missed {
		missed, err := outer.AppendChild(tlv.TypeMissed)
		if err != nil {
			return nil, err
		}
		if err := outer.AddToLength(missed.Size()); err != nil {
			return nil, err
		}
	}

	for _, message := range batch.Messages {
		if !ValidOriginator(message.Originator) {
			return nil, fmt.Errorf("wire: invalid originator %q in batch", message.Originator)
		}
		if !utf8.ValidString(message.Text) {
			return nil, fmt.Errorf("wire: message text is not valid UTF-8")
		}

		messageChild, err := outer.AppendChild(tlv.TypeMessage)
		if err != nil {
			return nil, err
		}
		if err := appendTextChild(messageChild, tlv.TypeOriginator, message.Originator); err != nil {
			return nil, err
		}
		if err := appendTextChild(messageChild, tlv.TypeTimestamp, message.Timestamp); err != nil {
			return nil, err
		}
		if err := appendTextChild(messageChild, tlv.TypeText, message.Text); err != nil {
			return nil, err
		}
		if err := outer.AddToLength(messageChild.Size()); err != nil {
			return nil, err
		}
	}
	return buffer[:outer.End()], nil
}

// beginPDU allocates a buffer sized for the outer header plus the
// estimated payload and starts the outer record. The built PDU is
// trimmed to the written size by the callers.
func beginPDU(typ tlv.Type, payloadEstimate int) (*tlv.Builder, []byte, error) {
	buffer := make([]byte, tlv.HeaderSize+payloadEstimate)
	outer, err := tlv.NewBuilder(typ, buffer, 0)
	if err != nil {
		return nil, nil, err
	}
	return outer, buffer, nil
}

// appendTextChild appends a text-valued child to parent and folds its
// size into the parent's length.
func appendTextChild(parent *tlv.Builder, typ tlv.Type, text string) error {
	child, err := parent.AppendChild(typ)
	if err != nil {
		return err
	}
	if err := child.SetText(text); err != nil {
		return err
	}
	return parent.AddToLength(child.Size())
}
