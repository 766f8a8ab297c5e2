package pdu

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DeliveryReceipt is the short_message body SMPP 3.4 defines for a delivery
// receipt: "id:IIIIIIIIII sub:SSS dlvrd:DDD submit date:YYMMDDhhmm done
// date:YYMMDDhhmm stat:DDDDDDD err:E Text: ...".
type DeliveryReceipt struct {
	Id         string
	Sub        string
	Dlvrd      string
	SubmitDate time.Time
	DoneDate   time.Time
	Stat       DelStat
	Err        string
	Text       string
}

type DelStat string

const (
	DelStatEnRoute       DelStat = "ENROUTE"
	DelStatDelivered     DelStat = "DELIVRD"
	DelStatExpired       DelStat = "EXPIRED"
	DelStatDeleted       DelStat = "DELETED"
	DelStatUndeliverable DelStat = "UNDELIV"
	DelStatAccepted      DelStat = "ACCEPTD"
	DelStatUnknown       DelStat = "UNKNOWN"
	DelStatRejected      DelStat = "REJECTD"
)

var DelStatMap = map[uint8]DelStat{
	1: DelStatEnRoute,
	2: DelStatDelivered,
	3: DelStatExpired,
	4: DelStatDeleted,
	5: DelStatUndeliverable,
	6: DelStatAccepted,
	7: DelStatUnknown,
	8: DelStatRejected,
}

// RecDateLayout is the minute-resolution layout delivery receipts use for
// their submit/done dates.
var RecDateLayout = "0601021504"
var SecRecDateLayout = "060102150405"

var dateFormats = []string{"20060102150405", "0601021504", "060102150405"}

func (dr *DeliveryReceipt) String() string {
	return fmt.Sprintf(
		"id:%s sub:%s dlvrd:%s submit date:%s done date:%s stat:%s err:%s text:%s",
		dr.Id, dr.Sub, dr.Dlvrd, dr.SubmitDate.Format(RecDateLayout), dr.DoneDate.Format(RecDateLayout), dr.Stat, dr.Err, dr.Text,
	)
}

func ParseDateTime(value string) (time.Time, error) {
	for _, df := range dateFormats {
		if result, err := time.ParseInLocation(df, value, time.Local); err == nil {
			return result, nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse time %s", value)
}

var errInvalidReceipt = errors.New("smpp: invalid receipt format")

// receiptFields lists the delivery-receipt header keys in the fixed order
// SMPP 3.4 mandates; "submit date" and "done date" are the only two-word
// keys, which is why this can't be split on whitespace alone.
var receiptFields = []string{"id", "sub", "dlvrd", "submit date", "done date", "stat", "err"}

// ParseDeliveryReceipt parses the delivery receipt short_message format
// defined in the SMPP 3.4 specification, by walking receiptFields in order
// and slicing out each key's value rather than matching a general pattern.
func ParseDeliveryReceipt(sm string) (*DeliveryReceipt, error) {
	textAt := strings.Index(sm, "text:")
	if textAt == -1 {
		textAt = strings.Index(sm, "Text:")
		if textAt == -1 {
			return nil, errInvalidReceipt
		}
	}
	values, err := splitReceiptHeader(sm[:textAt])
	if err != nil {
		return nil, err
	}

	delRec := DeliveryReceipt{
		Id:    values["id"],
		Sub:   values["sub"],
		Dlvrd: values["dlvrd"],
		Stat:  DelStat(values["stat"]),
		Err:   values["err"],
		Text:  sm[textAt+5:],
	}
	submitDate, err := ParseDateTime(values["submit date"])
	if err != nil {
		return nil, errInvalidReceipt
	}
	delRec.SubmitDate = submitDate
	doneDate, err := ParseDateTime(values["done date"])
	if err != nil {
		return nil, errInvalidReceipt
	}
	delRec.DoneDate = doneDate
	return &delRec, nil
}

// splitReceiptHeader walks header's whitespace-separated words against
// receiptFields in strict order. A two-word key like "submit date" spans
// two words (the second carrying "date:value"); everything else is a single
// "key:value" word. Any key name mismatch - not just a missing key - is
// rejected, matching the receipt format's fixed key order.
func splitReceiptHeader(header string) (map[string]string, error) {
	words := strings.Fields(header)
	values := make(map[string]string, len(receiptFields))
	wi := 0
	for _, key := range receiptFields {
		if wi >= len(words) {
			return nil, errInvalidReceipt
		}
		if lead, rest, ok := strings.Cut(key, " "); ok {
			if wi+1 >= len(words) || words[wi] != lead {
				return nil, errInvalidReceipt
			}
			prefix := rest + ":"
			if !strings.HasPrefix(words[wi+1], prefix) {
				return nil, errInvalidReceipt
			}
			values[key] = words[wi+1][len(prefix):]
			wi += 2
			continue
		}
		prefix := key + ":"
		if !strings.HasPrefix(words[wi], prefix) {
			return nil, errInvalidReceipt
		}
		values[key] = words[wi][len(prefix):]
		wi++
	}
	return values, nil
}
