package entity

import "time"

type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// ValidAt сообщает, можно ли использовать токен в момент now с учетом запаса margin
// до истечения срока действия.
func (t Token) ValidAt(now time.Time, margin time.Duration) bool {
	return t.AccessToken != "" && now.Before(t.ExpiresAt.Add(-margin))
}
