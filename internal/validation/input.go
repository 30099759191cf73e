package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/retasker/retasker-backend/internal/models"
)

// Константы валидации
const (
	MinOrderTitleLength       = 3
	MaxOrderTitleLength       = 200
	MinOrderDescriptionLength = 10
	MaxOrderDescriptionLength = 5000
	MinResponseMessageLength  = 10
	MaxResponseMessageLength  = 2000
	MinMessageLength          = 1
	MaxMessageLength          = 5000
	MinComplaintDescription   = 10
	MaxComplaintDescription   = 2000
	MaxCategoryLength         = 100
	MaxTagLength              = 50
	MaxTagsCount              = 20

	// Бюджеты и цены в копейках. Верхняя граница 100 миллионов рублей.
	MaxBudgetCents int64 = 10_000_000_000
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateOrderTitle проверяет заголовок заказа.
func ValidateOrderTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("заголовок заказа обязателен")
	}
	return ValidateLength("заголовок заказа", title, MinOrderTitleLength, MaxOrderTitleLength)
}

// ValidateOrderDescription проверяет описание заказа.
func ValidateOrderDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("описание заказа обязательно")
	}
	return ValidateLength("описание заказа", description, MinOrderDescriptionLength, MaxOrderDescriptionLength)
}

// ValidateAmountCents проверяет денежную сумму в копейках.
func ValidateAmountCents(fieldName string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("%s должен быть положительным", fieldName)
	}
	if amount > MaxBudgetCents {
		return fmt.Errorf("%s не может превышать %d", fieldName, MaxBudgetCents)
	}
	return nil
}

// ValidateOrderPriority проверяет приоритет заказа.
func ValidateOrderPriority(priority string) error {
	if _, ok := models.ValidOrderPriorities[priority]; !ok {
		return fmt.Errorf("недопустимый приоритет: %q", priority)
	}
	return nil
}

// ValidateWorkType проверяет тип оплаты работы.
func ValidateWorkType(workType string) error {
	if _, ok := models.ValidWorkTypes[workType]; !ok {
		return fmt.Errorf("недопустимый тип оплаты: %q", workType)
	}
	return nil
}

// ValidateTags проверяет список тегов заказа.
func ValidateTags(tags []string) error {
	if len(tags) > MaxTagsCount {
		return fmt.Errorf("тегов должно быть не более %d", MaxTagsCount)
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			return fmt.Errorf("тег не может быть пустым")
		}
		if err := ValidateLength("тег", tag, 1, MaxTagLength); err != nil {
			return err
		}
	}
	return nil
}

// ValidateResponseMessage проверяет сопроводительное сообщение отклика.
func ValidateResponseMessage(message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("сообщение отклика обязательно")
	}
	return ValidateLength("сообщение отклика", message, MinResponseMessageLength, MaxResponseMessageLength)
}

// ValidateChatMessage проверяет текст сообщения в чате сделки.
func ValidateChatMessage(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("сообщение не может быть пустым")
	}
	return ValidateLength("сообщение", content, MinMessageLength, MaxMessageLength)
}

// ValidateComplaintReason проверяет категорию причины жалобы.
func ValidateComplaintReason(reason string) error {
	if reason == "" {
		return fmt.Errorf("причина жалобы обязательна")
	}
	if _, ok := models.ValidComplaintReasons[reason]; !ok {
		return fmt.Errorf("недопустимая причина жалобы: %q", reason)
	}
	return nil
}

// ValidateComplaintDescription проверяет описание жалобы.
func ValidateComplaintDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("описание жалобы обязательно")
	}
	return ValidateLength("описание жалобы", description, MinComplaintDescription, MaxComplaintDescription)
}
