package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// GridChangedMessage announces that an apartment's grid for one year was
// written. The worker reloads the grid from the store, so only the key travels.
type GridChangedMessage struct {
	ApartmentID string    `json:"apartment_id"`
	Year        int       `json:"year"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewGridChangedMessage(apartmentID string, year int) *GridChangedMessage {
	return &GridChangedMessage{
		ApartmentID: apartmentID,
		Year:        year,
		Timestamp:   time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *GridChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// GridChangedMessageFromJSON decodes and checks a message body.
func GridChangedMessageFromJSON(data []byte) (*GridChangedMessage, error) {
	var msg GridChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.ApartmentID == "" {
		return nil, errors.New("message without apartment_id")
	}
	return &msg, nil
}
