package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// MaxID scans ids of the form "<prefix>-<n>" and returns the largest numeric
// suffix in use, or 0 for an empty set. A malformed suffix is a diagnostic, not
// a failure: the id is logged and excluded from the scan.
func MaxID(ids []string) int {
	maxSeen := 0
	for _, id := range ids {
		sep := strings.LastIndex(id, "-")
		if sep < 0 {
			logrus.WithField("id", id).Warn("identifier has no numeric suffix, skipping")
			continue
		}
		n, err := strconv.Atoi(id[sep+1:])
		if err != nil {
			logrus.WithField("id", id).Warn("identifier suffix is not numeric, skipping")
			continue
		}
		if n > maxSeen {
			maxSeen = n
		}
	}
	return maxSeen
}

// NextID allocates "<prefix>-<max+1>". Because the allocator scans existing
// keys instead of counting entries, ids of deleted entities are never reused.
func NextID(prefix string, ids []string) string {
	return fmt.Sprintf("%s-%d", prefix, MaxID(ids)+1)
}
