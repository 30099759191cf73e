package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/retasker/retasker-backend/internal/models"
)

func TestValidateOrderTitle(t *testing.T) {
	assert.NoError(t, ValidateOrderTitle("Логотип для кофейни"))
	assert.Error(t, ValidateOrderTitle(""))
	assert.Error(t, ValidateOrderTitle("  "))
	assert.Error(t, ValidateOrderTitle("ab"))
	assert.Error(t, ValidateOrderTitle(strings.Repeat("a", MaxOrderTitleLength+1)))
}

func TestValidateOrderDescription(t *testing.T) {
	assert.NoError(t, ValidateOrderDescription("Нужен логотип в двух вариантах."))
	assert.Error(t, ValidateOrderDescription(""))
	assert.Error(t, ValidateOrderDescription("коротко"))
}

// Длина считается в рунах: кириллический заголовок из трёх букв валиден.
func TestValidateLength_CountsRunes(t *testing.T) {
	assert.NoError(t, ValidateOrderTitle("Чат"))
}

func TestValidateAmountCents(t *testing.T) {
	assert.NoError(t, ValidateAmountCents("бюджет", 100))
	assert.Error(t, ValidateAmountCents("бюджет", 0))
	assert.Error(t, ValidateAmountCents("бюджет", -1))
	assert.Error(t, ValidateAmountCents("бюджет", MaxBudgetCents+1))
}

func TestValidateOrderPriority(t *testing.T) {
	assert.NoError(t, ValidateOrderPriority(models.OrderPriorityUrgent))
	assert.NoError(t, ValidateOrderPriority(models.OrderPriorityMedium))
	assert.Error(t, ValidateOrderPriority("low"))
	assert.Error(t, ValidateOrderPriority(""))
}

func TestValidateWorkType(t *testing.T) {
	for _, wt := range []string{models.WorkTypeFixed, models.WorkTypeHourly, models.WorkTypeMilestone} {
		assert.NoError(t, ValidateWorkType(wt))
	}
	assert.Error(t, ValidateWorkType("retainer"))
}

func TestValidateTags(t *testing.T) {
	assert.NoError(t, ValidateTags(nil))
	assert.NoError(t, ValidateTags([]string{"go", "postgres"}))
	assert.Error(t, ValidateTags([]string{""}))
	assert.Error(t, ValidateTags([]string{strings.Repeat("x", MaxTagLength+1)}))

	many := make([]string, MaxTagsCount+1)
	for i := range many {
		many[i] = "tag"
	}
	assert.Error(t, ValidateTags(many))
}

func TestValidateChatMessage(t *testing.T) {
	assert.NoError(t, ValidateChatMessage("Привет!"))
	assert.Error(t, ValidateChatMessage(""))
	assert.Error(t, ValidateChatMessage("   "))
	assert.Error(t, ValidateChatMessage(strings.Repeat("a", MaxMessageLength+1)))
}

func TestValidateComplaint(t *testing.T) {
	assert.NoError(t, ValidateComplaintReason(models.ComplaintReasonQuality))
	assert.Error(t, ValidateComplaintReason("vibes"))
	assert.Error(t, ValidateComplaintReason(""))

	assert.NoError(t, ValidateComplaintDescription("Работа не соответствует ТЗ."))
	assert.Error(t, ValidateComplaintDescription("плохо"))
}
