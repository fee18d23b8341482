package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewBookingNumber returns TRV-YYMMDD-XXXXXX with six random uppercase hex characters.
func NewBookingNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "TRV-" + now.UTC().Format("060102") + "-" + suffix
}
