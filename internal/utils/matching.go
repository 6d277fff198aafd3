package utils

import (
	"fmt"
	"math/big"

	"github.com/ArowuTest/daily-lotto-settlement/internal/models"
)

// NumberRange is the inclusive range every chosen and winning number must fall in.
type NumberRange struct {
	Min int
	Max int
}

// Size is the count of distinct values in the range.
func (r NumberRange) Size() int {
	return r.Max - r.Min + 1
}

// ValidateNumbers checks that every number lies within the range. Duplicates are allowed.
func ValidateNumbers(numbers []int, r NumberRange) error {
	if len(numbers) != models.NumbersPerTicket {
		return fmt.Errorf("expected %d numbers, got %d", models.NumbersPerTicket, len(numbers))
	}
	for i, n := range numbers {
		if n < r.Min || n > r.Max {
			return fmt.Errorf("number %d at position %d outside range %d-%d", n, i, r.Min, r.Max)
		}
	}
	return nil
}

// ExactMatches counts positions where the ticket equals the winning number.
func ExactMatches(ticket, winning [models.NumbersPerTicket]int) int {
	matches := 0
	for i := range ticket {
		if ticket[i] == winning[i] {
			matches++
		}
	}
	return matches
}

// AnyOrderMatches is the size of the multiset intersection of ticket and winning numbers.
// Each winning number is consumed at most once.
func AnyOrderMatches(ticket, winning [models.NumbersPerTicket]int) int {
	remaining := make(map[int]int, len(winning))
	for _, n := range winning {
		remaining[n]++
	}
	matches := 0
	for _, n := range ticket {
		if remaining[n] > 0 {
			remaining[n]--
			matches++
		}
	}
	return matches
}

// Classify returns the match counts and prize tier of a ticket.
// Precedence: 4 exact, 4 any-order, 3 exact, 3 any-order (free tickets), otherwise no prize.
func Classify(ticket, winning [models.NumbersPerTicket]int) models.MatchResult {
	exact := ExactMatches(ticket, winning)
	anyOrder := AnyOrderMatches(ticket, winning)

	tier := models.TierNoPrize
	switch {
	case exact == 4:
		tier = models.TierFirstPrize
	case anyOrder == 4:
		tier = models.TierSecondPrize
	case exact == 3:
		tier = models.TierThirdPrize
	case anyOrder == 3:
		tier = models.TierFreeTickets
	}
	return models.MatchResult{ExactMatches: exact, AnyOrderMatches: anyOrder, Tier: tier}
}

// WinningNumbersFromWords reduces each random word modulo the range size.
func WinningNumbersFromWords(words []*big.Int, r NumberRange) ([models.NumbersPerTicket]int, error) {
	var numbers [models.NumbersPerTicket]int
	if len(words) < models.NumbersPerTicket {
		return numbers, fmt.Errorf("need %d random words, got %d", models.NumbersPerTicket, len(words))
	}
	size := big.NewInt(int64(r.Size()))
	for i := 0; i < models.NumbersPerTicket; i++ {
		if words[i] == nil || words[i].Sign() < 0 {
			return numbers, fmt.Errorf("random word %d is invalid", i)
		}
		numbers[i] = r.Min + int(new(big.Int).Mod(words[i], size).Int64())
	}
	return numbers, nil
}

// ToArray copies a validated slice into a fixed ticket array.
func ToArray(numbers []int) [models.NumbersPerTicket]int {
	var out [models.NumbersPerTicket]int
	copy(out[:], numbers)
	return out
}
