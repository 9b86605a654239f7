package taxonomy

import "github.com/ppiankov/casechain/internal/model"

// DefaultVersion identifies the built-in table
const DefaultVersion = "tpu-cnj-2024.1"

var (
	origin   = []model.Tier{model.TierOrigin}
	appeal   = []model.Tier{model.TierAppellate, model.TierSuperior}
	anyPlace = []model.Tier{model.TierOrigin, model.TierAppellate, model.TierSuperior}
)

func polarity(v bool) *bool { return &v }

// DefaultEntries returns the built-in movement codes of the unified
// procedural table (TPU/CNJ) relevant to labor case outcomes
func DefaultEntries() []Entry {
	return []Entry{
		// First instance merits
		{Code: 219, Name: "Procedência", Tiers: origin, Category: model.OutcomeFavorableFirst, FavorsWorker: polarity(true), Kind: KindMerits},
		{Code: 220, Name: "Improcedência", Tiers: origin, Category: model.OutcomeUnfavorableFirst, FavorsWorker: polarity(false), Kind: KindMerits},
		{Code: 221, Name: "Procedência em Parte", Tiers: origin, Category: model.OutcomeFavorableFirst, FavorsWorker: polarity(true), Kind: KindMerits},
		{Code: 861, Name: "Julgamento Procedente", Tiers: origin, Category: model.OutcomeFavorableFirst, FavorsWorker: polarity(true), Kind: KindMerits},
		{Code: 862, Name: "Julgamento Improcedente", Tiers: origin, Category: model.OutcomeUnfavorableFirst, FavorsWorker: polarity(false), Kind: KindMerits},
		{Code: 863, Name: "Julgamento Parcialmente Procedente", Tiers: origin, Category: model.OutcomeFavorableFirst, FavorsWorker: polarity(true), Kind: KindMerits},

		// Appeal rulings
		{Code: 237, Name: "Provimento", Tiers: appeal, Category: model.OutcomeAppealGranted, Kind: KindMerits},
		{Code: 238, Name: "Provimento em Parte", Tiers: appeal, Category: model.OutcomeAppealPartiallyGranted, Kind: KindMerits},
		{Code: 239, Name: "Não-Provimento", Tiers: appeal, Category: model.OutcomeAppealDenied, Kind: KindMerits},
		{Code: 242, Name: "Desprovimento", Tiers: appeal, Category: model.OutcomeAppealDenied, Kind: KindMerits},
		{Code: 190, Name: "Reforma de Decisão Anterior", Tiers: appeal, Category: model.OutcomeAppealGranted, Kind: KindMerits},
		{Code: 236, Name: "Negação de Seguimento", Tiers: appeal, Category: model.OutcomeAppealDenied, Kind: KindClosing},

		// Closing at any tier
		{Code: 466, Name: "Extinção sem Resolução de Mérito", Tiers: anyPlace, Category: model.OutcomeExtinguishedNoMerit, Kind: KindClosing},
		{Code: 471, Name: "Homologação de Acordo", Tiers: anyPlace, Category: model.OutcomeSettlementHomologated, Kind: KindClosing},

		// Procedural
		{Code: 487, Name: "Extinção com Resolução de Mérito", Tiers: anyPlace, Kind: KindProcedural},
		{Code: 11009, Name: "Sentença Publicada", Tiers: anyPlace, Kind: KindProcedural},
		{Code: 804, Name: "Recurso", Tiers: anyPlace, Kind: KindProcedural},
		{Code: 123, Name: "Juntada de Petição", Tiers: anyPlace, Kind: KindProcedural},
		{Code: 246, Name: "Recebimento dos Autos", Tiers: anyPlace, Kind: KindProcedural},
		{Code: 51, Name: "Audiência Designada", Tiers: anyPlace, Kind: KindProcedural},
	}
}

// Default returns a freshly built copy of the built-in table
func Default() *Table {
	t, err := NewTable(DefaultVersion, DefaultEntries())
	if err != nil {
		panic("taxonomy: built-in table is invalid: " + err.Error())
	}
	return t
}
