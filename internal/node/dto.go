package node

import "github.com/rawblock/privacypool/pkg/models"

// boxDTO is the node's raw JSON box shape. Kept separate from models.Box so
// the node package owns the one place that trusts the node's wire format;
// everything else in the codebase only ever sees the parsed models.Box.
type boxDTO struct {
	BoxID               string            `json:"boxId"`
	Value               int64             `json:"value"`
	ErgoTree            string            `json:"ergoTree"`
	Assets              []assetDTO        `json:"assets"`
	AdditionalRegisters map[string]string `json:"additionalRegisters"`
	CreationHeight      int               `json:"creationHeight"`
}

type assetDTO struct {
	TokenID string `json:"tokenId"`
	Amount  int64  `json:"amount"`
}

func (d boxDTO) toModel() models.Box {
	tokens := make([]models.Token, len(d.Assets))
	for i, a := range d.Assets {
		tokens[i] = models.Token{TokenID: a.TokenID, Amount: a.Amount}
	}
	return models.Box{
		BoxID:     d.BoxID,
		Value:     d.Value,
		ErgoTree:  d.ErgoTree,
		Tokens:    tokens,
		Registers: d.AdditionalRegisters,
		Height:    d.CreationHeight,
	}
}

func toModels(dtos []boxDTO) []models.Box {
	out := make([]models.Box, len(dtos))
	for i, d := range dtos {
		out[i] = d.toModel()
	}
	return out
}
