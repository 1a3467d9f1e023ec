package filter

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/listmailer/internal/csvimport"
	"github.com/nhle/listmailer/internal/model"
)

func rec(email string) model.Record {
	return model.NewRecord([]string{"Email"}, []string{email})
}

func TestPartition_Scenario(t *testing.T) {
	in := "id,Email\n1,a@x.com\n2,A@X.COM\n3,Sophie_DuBuque67@yahoo.com"
	tbl, err := csvimport.Parse(strings.NewReader(in))
	require.NoError(t, err)

	res := Partition(tbl.Records, tbl.EmailHeader, DefaultBlocked())

	require.Len(t, res.Unique, 1)
	assert.Equal(t, "1", res.Unique[0].Value("id"))
	assert.Equal(t, "a@x.com", res.Unique[0].Value("Email"))
	assert.Equal(t, []string{"A@X.COM"}, res.Duplicates)
	assert.Equal(t, []string{"Sophie_DuBuque67@yahoo.com"}, res.Blocked)
}

func TestPartition_BlockedBeatsDuplicate(t *testing.T) {
	blocked := NewBlockedSet("spam@x.com")
	records := []model.Record{rec("SPAM@x.com"), rec("spam@x.com"), rec("ok@x.com")}

	res := Partition(records, "Email", blocked)

	assert.Equal(t, []string{"SPAM@x.com", "spam@x.com"}, res.Blocked)
	assert.Empty(t, res.Duplicates)
	require.Len(t, res.Unique, 1)
	assert.Equal(t, "ok@x.com", res.Unique[0].Value("Email"))
}

func TestPartition_FirstOccurrenceWins(t *testing.T) {
	records := []model.Record{
		model.NewRecord([]string{"Email", "n"}, []string{"a@x.com", "1"}),
		model.NewRecord([]string{"Email", "n"}, []string{"b@x.com", "2"}),
		model.NewRecord([]string{"Email", "n"}, []string{"A@x.com", "3"}),
	}

	res := Partition(records, "Email", NewBlockedSet())

	require.Len(t, res.Unique, 2)
	assert.Equal(t, "1", res.Unique[0].Value("n"))
	assert.Equal(t, "2", res.Unique[1].Value("n"))
	assert.Equal(t, []string{"A@x.com"}, res.Duplicates)
}

func TestPartition_EmptyInput(t *testing.T) {
	res := Partition(nil, "Email", DefaultBlocked())
	assert.Empty(t, res.Unique)
	assert.NotNil(t, res.Duplicates)
	assert.NotNil(t, res.Blocked)
}

// Every input record lands in exactly one output set, retained emails are
// distinct and never blocked.
func TestPartition_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pool := []string{"a@x.com", "A@X.com", "b@y.org", "Elias.Reichel@gmail.com", "ELIAS.REICHEL@GMAIL.COM", "c@z.net", "d@z.net"}
	blocked := DefaultBlocked()

	for i := 0; i < 200; i++ {
		n := rng.Intn(20)
		records := make([]model.Record, n)
		for j := range records {
			records[j] = rec(pool[rng.Intn(len(pool))])
		}

		res := Partition(records, "Email", blocked)

		total := len(res.Unique) + len(res.Duplicates) + len(res.Blocked)
		require.Equal(t, n, total, "iteration %d", i)

		seen := map[string]bool{}
		for _, r := range res.Unique {
			e := Normalize(r.Value("Email"))
			assert.False(t, seen[e], "duplicate retained: %s", e)
			assert.False(t, blocked.Contains(e), "blocked retained: %s", e)
			seen[e] = true
		}
		for _, d := range res.Duplicates {
			assert.True(t, seen[Normalize(d)], "duplicate %s without retained original", d)
		}
		for _, b := range res.Blocked {
			assert.True(t, blocked.Contains(b), fmt.Sprintf("%s not in blocked set", b))
		}
	}
}

func TestBlockedSet(t *testing.T) {
	s := DefaultBlocked(" Extra@Example.com ", "")

	assert.True(t, s.Contains("sophie_dubuque67@YAHOO.com"))
	assert.True(t, s.Contains("extra@example.com"))
	assert.False(t, s.Contains(""))
	assert.Len(t, s, 4)
}
