package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register()

	before := testutil.ToFloat64(RecordsDropped.WithLabelValues("price"))
	RecordsDropped.WithLabelValues("price").Add(2)

	if got := testutil.ToFloat64(RecordsDropped.WithLabelValues("price")); got != before+2 {
		t.Errorf("RecordsDropped{stage=price} = %v, want %v", got, before+2)
	}
}
