package domain

import "time"

const DefaultWalletID = "main"

type Wallet struct {
	ID        string    `json:"id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WalletHandle identifies the wallet a booking is charged against and the
// balance it starts with when it does not exist yet.
type WalletHandle struct {
	ID             string
	DefaultBalance int64
}
