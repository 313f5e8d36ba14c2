package notifier

import (
	"fmt"
	"strings"

	"bakery/internal/usecase"
)

func orderPlacedText(msg usecase.OrderPlacedMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", msg.CustomerName)
	fmt.Fprintf(&b, "Thank you for your order! Your order %s has been placed.\n\n", msg.OrderNumber)
	fmt.Fprintf(&b, "Total: %s\n", msg.Total.StringFixed(2))
	fmt.Fprintf(&b, "Delivery date: %s\n", msg.DeliveryDate)
	if msg.DeliverySlot != "" {
		fmt.Fprintf(&b, "Delivery slot: %s\n", msg.DeliverySlot)
	}
	b.WriteString("\nWe'll let you know when it is on the way.\n")
	return b.String()
}

func orderAssignedText(msg usecase.OrderAssignedMessage) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", msg.PartnerName)
	fmt.Fprintf(&b, "Order %s has been assigned to you.\n", msg.OrderNumber)
	if msg.Address != "" {
		fmt.Fprintf(&b, "Deliver to: %s\n", msg.Address)
	}
	return b.String()
}

func passwordResetText(name, link string) string {
	return fmt.Sprintf("Hi %s,\n\nUse the link below to reset your password. It expires in 1 hour.\n\n%s\n\n"+
		"If you did not request this, you can ignore this email.\n", name, link)
}
