package models

type LeaderboardItem struct {
	Username string  `json:"username"`
	UserId   int64   `json:"user_id"`
	Score    float64 `json:"score"`
	Level    int     `json:"level,omitempty"`
	Rank     int     `json:"rank,omitempty"`
}

type LeaderboardResponse struct {
	Leaderboard []*LeaderboardItem `json:"leaderboard"`
	Me          *LeaderboardItem   `json:"me"`
	Total       int64              `json:"total"`
}
