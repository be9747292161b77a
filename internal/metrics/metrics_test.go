package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRecipeWrite(t *testing.T) {
	before := testutil.ToFloat64(RecipeWrites.WithLabelValues("create", "success"))
	beforeFailure := testutil.ToFloat64(RecipeWrites.WithLabelValues("create", "failure"))

	RecordRecipeWrite("create", time.Now(), nil)
	RecordRecipeWrite("create", time.Now(), errors.New("boom"))

	assert.Equal(t, before+1, testutil.ToFloat64(RecipeWrites.WithLabelValues("create", "success")))
	assert.Equal(t, beforeFailure+1, testutil.ToFloat64(RecipeWrites.WithLabelValues("create", "failure")))
}

func TestRecordMembership(t *testing.T) {
	before := testutil.ToFloat64(MembershipChanges.WithLabelValues("favorite", "add", "conflict"))

	RecordMembership("favorite", "add", true, errors.New("already there"))

	assert.Equal(t, before+1, testutil.ToFloat64(MembershipChanges.WithLabelValues("favorite", "add", "conflict")))
}

func TestRecordShoppingListDownload(t *testing.T) {
	before := testutil.ToFloat64(ShoppingListDownloads)

	RecordShoppingListDownload(3)

	assert.Equal(t, before+1, testutil.ToFloat64(ShoppingListDownloads))
}
