package realtime

import (
	"encoding/json"
	"fmt"
)

// Kind names an event delivered over the channel
type Kind string

// Lifecycle events are produced by the transport itself.
const (
	KindConnect    Kind = "connect"
	KindDisconnect Kind = "disconnect"
)

// Push events sent by the backend.
const (
	KindNotification    Kind = "notification"
	KindNewNotification Kind = "new_notification"
	KindStatusChanged   Kind = "application_status_changed"
)

// joinEvent is the outbound room subscription request
const joinEvent = "join"

// Event is one inbound message. Payload is nil for lifecycle events.
type Event struct {
	Kind    Kind
	Payload json.RawMessage
}

// NotificationPayload is carried by notification and new_notification
type NotificationPayload struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// UnmarshalJSON accepts _id as an alias of id.
func (p *NotificationPayload) UnmarshalJSON(data []byte) error {
	type plain NotificationPayload
	var aux struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*p = NotificationPayload(aux.plain)
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	return nil
}

// StatusChangePayload is carried by application_status_changed
type StatusChangePayload struct {
	ApplicationID string `json:"applicationId"`
	Status        string `json:"status"`
	JobTitle      string `json:"jobTitle"`
	CompanyName   string `json:"companyName"`
}

// DecodeNotification decodes the payload of a notification event
func DecodeNotification(ev Event) (NotificationPayload, error) {
	var p NotificationPayload
	if err := decode(ev, &p); err != nil {
		return NotificationPayload{}, err
	}
	return p, nil
}

// DecodeStatusChange decodes the payload of a status change event
func DecodeStatusChange(ev Event) (StatusChangePayload, error) {
	var p StatusChangePayload
	if err := decode(ev, &p); err != nil {
		return StatusChangePayload{}, err
	}
	if p.ApplicationID == "" {
		return StatusChangePayload{}, fmt.Errorf("%s event has no applicationId", ev.Kind)
	}
	return p, nil
}

func decode(ev Event, v any) error {
	if len(ev.Payload) == 0 {
		return fmt.Errorf("%s event has no payload", ev.Kind)
	}
	if err := json.Unmarshal(ev.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", ev.Kind, err)
	}
	return nil
}
