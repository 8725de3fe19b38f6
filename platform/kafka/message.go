package kafka

import "time"

// Message is a record read from a topic.
type Message struct {
	Headers        map[string][]byte
	Timestamp      time.Time
	BlockTimestamp time.Time

	Key       []byte
	Value     []byte
	Topic     string
	Partition int32
	Offset    int64
}

// OutgoingMessage is a record to be written to the producer's topic.
type OutgoingMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Header returns the value of header key or "".
func (m Message) Header(key string) string {
	return string(m.Headers[key])
}
