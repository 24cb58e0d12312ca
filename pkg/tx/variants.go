package tx

type Transfer struct {
	Sender    string  `msgpack:"f"`
	Recipient string  `msgpack:"r"`
	Amount    float64 `msgpack:"a"`
}

// Upload is the payload of both data and model uploads.
type Upload struct {
	Owner    string            `msgpack:"o"`
	Metadata map[string]string `msgpack:"m"`
	Price    float64           `msgpack:"p"`
}

// Purchase is the payload of both data and model purchases. ItemID is
// the transaction id of the referenced upload.
type Purchase struct {
	Buyer  string  `msgpack:"b"`
	Seller string  `msgpack:"s"`
	ItemID string  `msgpack:"i"`
	Amount float64 `msgpack:"a"`
}

func NewTransfer(sender, recipient string, amount float64) (*Tx, error) {
	return newTx(TxType_Transfer, &Transfer{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
	})
}

func NewDataUpload(owner string, metadata map[string]string, price float64) (*Tx, error) {
	return newUpload(TxType_DataUpload, owner, metadata, price)
}

func NewModelUpload(owner string, metadata map[string]string, price float64) (*Tx, error) {
	return newUpload(TxType_ModelUpload, owner, metadata, price)
}

func newUpload(t TxType, owner string, metadata map[string]string, price float64) (*Tx, error) {
	var md map[string]string
	if metadata != nil {
		md = make(map[string]string, len(metadata))
		for k, v := range metadata {
			md[k] = v
		}
	}

	return newTx(t, &Upload{
		Owner:    owner,
		Metadata: md,
		Price:    price,
	})
}

func NewDataPurchase(buyer, seller, dataID string, amount float64) (*Tx, error) {
	return newTx(TxType_DataPurchase, &Purchase{buyer, seller, dataID, amount})
}

func NewModelPurchase(buyer, seller, modelID string, amount float64) (*Tx, error) {
	return newTx(TxType_ModelPurchase, &Purchase{buyer, seller, modelID, amount})
}
