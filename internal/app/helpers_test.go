package service_test

import (
	"github.com/okian/beeline/internal/domain/dataset"
	"github.com/okian/beeline/internal/domain/model"
	"github.com/okian/beeline/pkg/logger"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func fixtureTable() *dataset.Table {
	t, err := dataset.FromObservations([]model.Observation{
		{State: "Alabama", StateANSI: "1", AffectedBy: "Disease", Year: 2015, StateCode: "AL", PctColoniesImpacted: 10},
		{State: "Alabama", StateANSI: "1", AffectedBy: "Pesticides", Year: 2015, StateCode: "AL", PctColoniesImpacted: 20},
		{State: "Alaska", StateANSI: "2", AffectedBy: "Disease", Year: 2015, StateCode: "AK", PctColoniesImpacted: 5},
		{State: "Alabama", StateANSI: "1", AffectedBy: "Disease", Year: 2016, StateCode: "AL", PctColoniesImpacted: 30},
		{State: "Arizona", StateANSI: "4", AffectedBy: "Varroa_mites", Year: 2017, StateCode: "AZ", PctColoniesImpacted: 12.346},
	})
	if err != nil {
		panic(err)
	}
	return t
}
