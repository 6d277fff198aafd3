package utils

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
)

var testRange = NumberRange{Min: 0, Max: 24}

func TestClassify_Scenario(t *testing.T) {
	winning := [4]int{8, 5, 7, 14}
	tests := []struct {
		name   string
		ticket [4]int
		tier   models.Tier
		exact  int
		any    int
	}{
		{"same order", [4]int{8, 5, 7, 14}, models.TierFirstPrize, 4, 4},
		{"reversed", [4]int{14, 7, 5, 8}, models.TierSecondPrize, 0, 4},
		{"three in place", [4]int{8, 5, 7, 20}, models.TierThirdPrize, 3, 3},
		{"three any order", [4]int{20, 5, 7, 8}, models.TierFreeTickets, 2, 3},
		{"nothing", [4]int{1, 2, 3, 4}, models.TierNoPrize, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.ticket, winning)
			assert.Equal(t, tt.tier, got.Tier)
			assert.Equal(t, tt.exact, got.ExactMatches)
			assert.Equal(t, tt.any, got.AnyOrderMatches)
		})
	}
}

func TestAnyOrderMatches_ConsumesEachWinningNumberOnce(t *testing.T) {
	assert.Equal(t, 1, AnyOrderMatches([4]int{5, 5, 5, 5}, [4]int{5, 1, 2, 3}))
	assert.Equal(t, 2, AnyOrderMatches([4]int{5, 5, 9, 9}, [4]int{5, 5, 2, 3}))
	assert.Equal(t, 4, AnyOrderMatches([4]int{3, 3, 3, 3}, [4]int{3, 3, 3, 3}))
}

func TestValidateNumbers(t *testing.T) {
	require.NoError(t, ValidateNumbers([]int{0, 24, 24, 3}, testRange))
	require.Error(t, ValidateNumbers([]int{0, 25, 1, 2}, testRange))
	require.Error(t, ValidateNumbers([]int{-1, 2, 1, 2}, testRange))
	require.Error(t, ValidateNumbers([]int{1, 2, 3}, testRange))
	require.Error(t, ValidateNumbers([]int{1, 2, 3, 4, 5}, testRange))
}

func TestWinningNumbersFromWords(t *testing.T) {
	words := []*big.Int{big.NewInt(25), big.NewInt(26), big.NewInt(49), new(big.Int).Lsh(big.NewInt(1), 255)}
	got, err := WinningNumbersFromWords(words, testRange)
	require.NoError(t, err)
	expectedLast := int(new(big.Int).Mod(words[3], big.NewInt(25)).Int64())
	assert.Equal(t, [4]int{0, 1, 24, expectedLast}, got)

	_, err = WinningNumbersFromWords(words[:3], testRange)
	require.Error(t, err)
}

func numbersGen() *rapid.Generator[[4]int] {
	return rapid.Custom(func(t *rapid.T) [4]int {
		var out [4]int
		for i := range out {
			out[i] = rapid.IntRange(testRange.Min, testRange.Max).Draw(t, "n")
		}
		return out
	})
}

func TestClassify_Deterministic(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ticket := numbersGen().Draw(t, "ticket")
		winning := numbersGen().Draw(t, "winning")
		first := Classify(ticket, winning)
		for i := 0; i < 3; i++ {
			if Classify(ticket, winning) != first {
				t.Fatalf("classification changed between evaluations")
			}
		}
	})
}

func TestClassify_IdenticalIsFirstPrize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		winning := numbersGen().Draw(t, "winning")
		if got := Classify(winning, winning).Tier; got != models.TierFirstPrize {
			t.Fatalf("identical numbers resolved to %s", got)
		}
	})
}

func TestClassify_PermutationNeverBelowSecondPrize(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		winning := numbersGen().Draw(t, "winning")
		perm := rapid.Permutation(winning[:]).Draw(t, "perm")
		tier := Classify(ToArray(perm), winning).Tier
		if tier != models.TierFirstPrize && tier != models.TierSecondPrize {
			t.Fatalf("permutation %v of %v resolved to %s", perm, winning, tier)
		}
	})
}

func TestMatches_Bounds(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ticket := numbersGen().Draw(t, "ticket")
		winning := numbersGen().Draw(t, "winning")
		exact := ExactMatches(ticket, winning)
		anyOrder := AnyOrderMatches(ticket, winning)
		if exact > anyOrder {
			t.Fatalf("exact %d exceeds any-order %d", exact, anyOrder)
		}
		if anyOrder != AnyOrderMatches(winning, ticket) {
			t.Fatalf("any-order matching is not symmetric")
		}
	})
}
