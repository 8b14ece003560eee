package badge

import "fmt"

const (
	MinTotalPosts     = 5
	MinCompliantPosts = 5

	earnedMessage = "🎖️ Congrats! You earned your weekly compliance badge!"
	missedMessage = "You posted %d/%d times this week. Keep pushing to get your badge!"
)

type Outcome struct {
	Earned    bool `json:"badge"`
	Compliant int  `json:"compliant"`
	Total     int  `json:"total"`
}

// Evaluate decides weekly badge eligibility. Counts are clamped so that
// 0 <= compliant <= total.
func Evaluate(total, compliant int) Outcome {
	if total < 0 {
		total = 0
	}
	if compliant < 0 {
		compliant = 0
	}
	if compliant > total {
		compliant = total
	}

	return Outcome{
		Earned:    total >= MinTotalPosts && compliant >= MinCompliantPosts,
		Compliant: compliant,
		Total:     total,
	}
}

func (o Outcome) Message() string {
	if o.Earned {
		return earnedMessage
	}
	return fmt.Sprintf(missedMessage, o.Compliant, o.Total)
}

// Remaining is how many more compliant posts the week needs.
func (o Outcome) Remaining() int {
	if r := MinCompliantPosts - o.Compliant; r > 0 {
		return r
	}
	return 0
}
