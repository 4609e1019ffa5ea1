package statement

import (
	"fmt"
	"strings"
	"time"

	"github.com/iamdivyeshtailor/finance-management/internal/core"
)

// Layouts seen in Indian bank exports, day first.
var dateLayouts = []string{
	"2 Jan 2006",
	"02 Jan 2006",
	"2-Jan-2006",
	"02-Jan-2006",
	"2 Jan 06",
	"02-Jan-06",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"02.01.2006",
	"02/01/06",
	"2006-01-02",
}

func parseDate(s string) (core.Date, error) {
	s = strings.Join(strings.Fields(s), " ")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.DateOf(t), nil
		}
	}
	return core.Date{}, fmt.Errorf("unrecognized date %q", s)
}
