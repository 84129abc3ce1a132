package models

// OpenBankingCard is a payment card linked through the external aggregator.
// Cards are read-only from this client's perspective: they are fetched, and
// a history sync triggers server-side ingestion of new transactions.
//
// No is the masked display number; FinCardNo is the true external identifier
// used in sync requests.
type OpenBankingCard struct {
	No        string `json:"no"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	SyncAt    string `json:"syncAt,omitempty"`
	FinCardNo string `json:"finCardNo"`
}

// SyncCardHistoryRequest carries the external card identifiers selected for
// a history sync.
type SyncCardHistoryRequest struct {
	NoList []string `json:"noList"`
}
