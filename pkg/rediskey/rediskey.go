package rediskey

import (
	"fmt"
	"strings"
)

const LeaderboardPrefix = "leaderboard"

func NamespaceKey(namespace, key string) string {
	return fmt.Sprintf("%s:%s", namespace, key)
}

// BuildLeaderboardKey returns "leaderboard:{scope}:{scopeID}:{timeframe}:{weekKey}".
// The week key pins the entry to the week it was computed in.
func BuildLeaderboardKey(scope, scopeID, timeframe, weekKey string) string {
	if scopeID == "" {
		scopeID = "-"
	}
	return NamespaceKey(LeaderboardPrefix, strings.Join([]string{scope, strings.ToLower(scopeID), timeframe, weekKey}, ":"))
}
