package handlers

import (
	"html"

	"github.com/ahmetcoskunkizilkaya/marketplace-backend/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type LegalHandler struct{}

func NewLegalHandler() *LegalHandler {
	return &LegalHandler{}
}

const legalStyle = `<meta name="viewport" content="width=device-width, initial-scale=1">
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:800px;margin:0 auto;padding:20px;color:#333}h1{color:#1a1a1a}h2{color:#444;margin-top:30px}</style>`

// storeIdentity returns the escaped store name and contact address of the resolved storefront.
func storeIdentity(c *fiber.Ctx) (string, string) {
	name, contact := "Our Store", ""
	if v := tenant.GetVendor(c); v != nil {
		name = v.Name
		contact = v.ContactEmail
	}
	return html.EscapeString(name), html.EscapeString(contact)
}

func contactLine(contact string) string {
	if contact == "" {
		return "<p>For questions, contact the store through its storefront.</p>"
	}
	return `<p>For questions, contact us at <a href="mailto:` + contact + `">` + contact + `</a>.</p>`
}

func (h *LegalHandler) PrivacyPolicy(c *fiber.Ctx) error {
	name, contact := storeIdentity(c)

	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Privacy Policy - ` + name + `</title>
` + legalStyle + `
</head><body>
<h1>Privacy Policy</h1>
<h2>Information We Collect</h2>
<p>When you order from ` + name + ` we collect your email address, name, phone number and shipping address.</p>
<h2>How We Use Your Information</h2>
<p>Your data is used to sign you in with one-time codes, fulfil and deliver your orders and send order updates.</p>
<h2>Payments</h2>
<p>Card details are handled by our payment provider and never stored by ` + name + `.</p>
<h2>Account Deletion</h2>
<p>You can delete your account at any time. Order records required for accounting are kept without your contact details.</p>
<h2>Contact</h2>
` + contactLine(contact) + `
</body></html>`)
}

func (h *LegalHandler) TermsOfService(c *fiber.Ctx) error {
	name, contact := storeIdentity(c)

	return c.Type("html").SendString(`<!DOCTYPE html>
<html><head><title>Terms of Service - ` + name + `</title>
` + legalStyle + `
</head><body>
<h1>Terms of Service</h1>
<h2>Acceptance</h2>
<p>By ordering from ` + name + `, you agree to these terms.</p>
<h2>Orders and Pricing</h2>
<p>Prices include the listed tax and shipping at checkout. An order is confirmed once the store accepts it.</p>
<h2>Cancellations and Refunds</h2>
<p>Pending orders can be cancelled from your account. Refunds are issued to the original payment method.</p>
<h2>Contact</h2>
` + contactLine(contact) + `
</body></html>`)
}
