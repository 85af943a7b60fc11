package homework

import (
	"fmt"

	"github.com/pkg/errors"
)

// Status is the review state of a submitted homework.
type Status string

// Review states reported by the homework API.
const (
	StatusReviewing Status = "reviewing"
	StatusRejected  Status = "rejected"
	StatusApproved  Status = "approved"
)

var (
	// ErrUnknownStatus is returned for a review status outside the verdict table.
	ErrUnknownStatus = errors.New("unknown homework status")

	// ErrMalformedHomework is returned when a homework lacks its name or status.
	ErrMalformedHomework = errors.New("homework name or status is missing")
)

var verdicts = map[Status]string{
	StatusReviewing: "Проект на ревью.",
	StatusRejected:  "К сожалению в работе нашлись ошибки.",
	StatusApproved:  "Ревьюеру всё понравилось, работа зачтена!",
}

// Verdict returns the human-readable text for a review status.
func Verdict(s Status) (string, error) {
	v, ok := verdicts[s]
	if !ok {
		return "", errors.Wrapf(ErrUnknownStatus, "%q", string(s))
	}
	return v, nil
}

// ParseHomeworkStatus builds the notification text for hw.
func ParseHomeworkStatus(hw Homework) (string, error) {
	if hw.Name == "" || hw.Status == "" {
		return "", errors.Wrapf(ErrMalformedHomework,
			"name=%q status=%q", hw.Name, string(hw.Status))
	}
	verdict, err := Verdict(hw.Status)
	if err != nil {
		return "", errors.Wrapf(err, "homework %q", hw.Name)
	}
	return fmt.Sprintf("У вас проверили работу \"%s\"!\n\n%s", hw.Name, verdict), nil
}
