package presence

import (
	"fmt"
	"time"
)

// DefaultOnlineThreshold último ping dentro de este margen = en línea.
const DefaultOnlineThreshold = 5 * time.Minute

// Status deriva el estado de presencia a partir del último ping.
func Status(lastSeen *time.Time, now time.Time, threshold time.Duration) (online bool, label string) {
	if lastSeen == nil || lastSeen.IsZero() {
		return false, "Nunca"
	}
	diff := now.Sub(*lastSeen)
	if diff < 0 {
		diff = 0
	}
	if diff < threshold {
		return true, "En línea"
	}
	switch {
	case diff < time.Hour:
		return false, fmt.Sprintf("Visto hace %d min", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return false, fmt.Sprintf("Visto hace %d h", int(diff.Hours()))
	default:
		return false, fmt.Sprintf("Visto hace %d días", int(diff.Hours()/24))
	}
}
