package orders

import "fmt"

// Status follows the order through fulfilment. New orders are always
// pending; every later transition is a plain admin write.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCanceled   Status = "canceled"
)

var all = []Status{StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCanceled}

func AllStatuses() []Status { return all }

func (s Status) Valid() bool {
	for _, v := range all {
		if s == v {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid order status %q", s)
	}
	return st, nil
}

// Terminal statuses no longer tie up inventory; games in such orders may
// be retired from the catalog.
func (s Status) Terminal() bool {
	return s == StatusShipped || s == StatusDelivered || s == StatusCanceled
}
