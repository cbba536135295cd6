package public

// Tx is the client view of a transaction with names resolved.
type Tx struct {
	TxID      string  `json:"txid"`
	From      string  `json:"from"`
	FromName  string  `json:"from_name"`
	To        string  `json:"to"`
	ToName    string  `json:"to_name"`
	Amount    float64 `json:"amount"`
	Fee       float64 `json:"fee"`
	TimeStamp float64 `json:"timestamp"`
	Signature string  `json:"signature"`
}

// Block is the client view of a block.
type Block struct {
	Index        uint64  `json:"index"`
	PrevHash     string  `json:"previous_hash"`
	TimeStamp    float64 `json:"timestamp"`
	Nonce        uint64  `json:"nonce"`
	Hash         string  `json:"hash"`
	Transactions []Tx    `json:"transactions"`
}

// Balance is the spendable funds for one account.
type Balance struct {
	Account string  `json:"account"`
	Name    string  `json:"name"`
	Balance float64 `json:"balance"`
}

// Balances is the balance query response.
type Balances struct {
	LatestBlock string    `json:"latest_block"`
	Uncommitted int       `json:"uncommitted"`
	Balances    []Balance `json:"balances"`
}

// Status is the node status response.
type Status struct {
	ChainName    string   `json:"chain_name"`
	Height       uint64   `json:"height"`
	LatestHash   string   `json:"latest_hash"`
	Difficulty   int      `json:"difficulty"`
	MempoolCount int      `json:"mempool_count"`
	KnownPeers   []string `json:"known_peers"`
}

// SubmitTx is the payload a wallet posts to /tx/submit. The transaction must
// already be signed; the node never sees a secret key.
type SubmitTx struct {
	TxID      string  `json:"txid" validate:"required"`
	Sender    string  `json:"sender" validate:"required"`
	Recipient string  `json:"recipient" validate:"required"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
	Fee       float64 `json:"fee" validate:"gte=0"`
	TimeStamp float64 `json:"timestamp" validate:"required"`
	Signature string  `json:"signature" validate:"required"`
}
