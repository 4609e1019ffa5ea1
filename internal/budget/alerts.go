package budget

import "github.com/iamdivyeshtailor/finance-management/internal/core"

const (
	WarningPercent = 80
	DangerPercent  = 100
)

type AlertLevel string

const (
	AlertWarning AlertLevel = "warning"
	AlertDanger  AlertLevel = "danger"
)

// Alert flags a category that has used most or all of its limit.
type Alert struct {
	Name        string     `json:"name"`
	PercentUsed int64      `json:"percentUsed"`
	Level       AlertLevel `json:"level"`
}

// Dismissed is the set of category names whose alerts the user closed during
// the current session.
type Dismissed map[string]struct{}

// NewDismissed builds a set from names, ignoring empty ones.
func NewDismissed(names ...string) Dismissed {
	d := make(Dismissed, len(names))
	for _, n := range names {
		if n != "" {
			d[n] = struct{}{}
		}
	}
	return d
}

func (d Dismissed) Has(name string) bool {
	_, ok := d[name]
	return ok
}

// Alerts lists the categories at or above the warning threshold that have not
// been dismissed, in report order.
func Alerts(r core.Report, dismissed Dismissed) []Alert {
	alerts := []Alert{}
	for _, c := range r.Categories {
		if c.PercentUsed < WarningPercent || dismissed.Has(c.Name) {
			continue
		}
		level := AlertWarning
		if c.PercentUsed >= DangerPercent {
			level = AlertDanger
		}
		alerts = append(alerts, Alert{Name: c.Name, PercentUsed: c.PercentUsed, Level: level})
	}
	return alerts
}
