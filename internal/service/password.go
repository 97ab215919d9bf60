package service

import (
	"bufio"
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/iliyamo/job-board/internal/config"
	"github.com/iliyamo/job-board/internal/utils"
)

//go:embed common_passwords.txt
var commonPasswordList string

var commonPasswords = func() map[string]struct{} {
	set := map[string]struct{}{}
	sc := bufio.NewScanner(strings.NewReader(commonPasswordList))
	for sc.Scan() {
		if w := strings.TrimSpace(sc.Text()); w != "" && !strings.HasPrefix(w, "#") {
			set[strings.ToLower(w)] = struct{}{}
		}
	}
	return set
}()

// PasswordPolicy rejects short, numeric, common and personal passwords.
type PasswordPolicy struct {
	MinLength     int
	MaxSimilarity float64
}

func NewPasswordPolicy(cfg config.PasswordConfig) PasswordPolicy {
	return PasswordPolicy{MinLength: cfg.MinLength, MaxSimilarity: cfg.MaxSimilarity}
}

// PersonalInfo is compared against the password by the similarity rule.
type PersonalInfo struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

var nonWord = regexp.MustCompile(`\W+`)

// Check returns every failed rule's message, or nil.
func (p PasswordPolicy) Check(password string, who PersonalInfo) []string {
	var msgs []string

	if len(password) > utils.MaxPasswordBytes {
		msgs = append(msgs, fmt.Sprintf("Ensure this password has at most %d bytes.", utils.MaxPasswordBytes))
	}

	attrs := []struct{ value, name string }{
		{who.Username, "username"},
		{who.FirstName, "first name"},
		{who.LastName, "last name"},
		{who.Email, "email address"},
	}
	lower := strings.ToLower(password)
	for _, a := range attrs {
		if a.value == "" {
			continue
		}
		v := strings.ToLower(a.value)
		parts := append([]string{v}, nonWord.Split(v, -1)...)
		for _, part := range parts {
			if part == "" || tooLongToCompare(lower, part, p.MaxSimilarity) {
				continue
			}
			if similarity(lower, part) >= p.MaxSimilarity {
				msgs = append(msgs, fmt.Sprintf("The password is too similar to the %s.", a.name))
				break
			}
		}
	}

	if len([]rune(password)) < p.MinLength {
		msgs = append(msgs, fmt.Sprintf("This password is too short. It must contain at least %d characters.", p.MinLength))
	}
	if _, ok := commonPasswords[strings.ToLower(strings.TrimSpace(password))]; ok {
		msgs = append(msgs, "This password is too common.")
	}
	if password != "" && strings.IndexFunc(password, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		msgs = append(msgs, "This password is entirely numeric.")
	}
	return msgs
}

// similarity is an upper bound on the matching ratio of a and b: twice the
// size of their shared character multiset over the combined length.
func similarity(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 0
	}
	avail := map[rune]int{}
	for _, r := range b {
		avail[r]++
	}
	matches := 0
	for _, r := range a {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}

// tooLongToCompare skips attribute parts far shorter than the password;
// they cannot reach the similarity bound.
func tooLongToCompare(password, part string, maxSimilarity float64) bool {
	pwdLen, partLen := len(password), len(part)
	return pwdLen >= 10*partLen && float64(partLen) < maxSimilarity/2*float64(pwdLen)
}
