package utils

import (
	"fmt"
	"html"
	"strings"

	"vendora_back_end/internal/models"
)

const emailHeader = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif; background-color: #f5f5f5;">
    <table role="presentation" style="width: 100%%; border-collapse: collapse; background-color: #f5f5f5;">
        <tr>
            <td style="padding: 40px 20px;">
                <table role="presentation" style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 12px; box-shadow: 0 4px 6px rgba(0,0,0,0.1);">
                    <tr>
                        <td style="background: linear-gradient(135deg, #667eea 0%%, #764ba2 100%%); padding: 40px 30px; text-align: center; border-radius: 12px 12px 0 0;">
                            <h1 style="margin: 0; color: #ffffff; font-size: 28px; font-weight: 600;">%s</h1>
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 40px 30px;">`

const emailFooter = `
                        </td>
                    </tr>
                    <tr>
                        <td style="padding: 20px 30px; background-color: #f8f9fa; text-align: center; border-radius: 0 0 12px 12px;">
                            <p style="margin: 0; color: #999999; font-size: 12px;">The Vendora team</p>
                        </td>
                    </tr>
                </table>
            </td>
        </tr>
    </table>
</body>
</html>`

func layout(title, heading, body string) string {
	return fmt.Sprintf(emailHeader, title, heading) + body + emailFooter
}

func otpEmailHTML(name, otp string) string {
	body := fmt.Sprintf(`
                            <p style="margin: 0 0 20px 0; color: #333333; font-size: 16px;">Hello %s,</p>
                            <p style="margin: 0 0 20px 0; color: #333333; font-size: 16px;">Use this code to verify your email address:</p>
                            <div style="margin: 30px 0; text-align: center;">
                                <span style="display: inline-block; padding: 16px 32px; background-color: #f0f0ff; color: #667eea; font-size: 32px; font-weight: 700; letter-spacing: 8px; border-radius: 8px;">%s</span>
                            </div>
                            <p style="margin: 0; color: #666666; font-size: 14px;">This code expires in 10 minutes.</p>`,
		html.EscapeString(name), otp)
	return layout("Verify your email", "Verify your email", body)
}

func passwordResetEmailHTML(name, resetURL string) string {
	body := fmt.Sprintf(`
                            <p style="margin: 0 0 20px 0; color: #333333; font-size: 16px;">Hello %s,</p>
                            <p style="margin: 0 0 20px 0; color: #333333; font-size: 16px;">You requested a password reset. Click the button below to choose a new password.</p>
                            <div style="margin: 30px 0; text-align: center;">
                                <a href="%s" style="display: inline-block; padding: 16px 40px; background-color: #667eea; color: #ffffff; text-decoration: none; border-radius: 8px; font-weight: 600;">Reset password</a>
                            </div>
                            <p style="margin: 0; color: #666666; font-size: 14px;">This link expires in 10 minutes. If you did not request it, ignore this email.</p>`,
		html.EscapeString(name), html.EscapeString(resetURL))
	return layout("Reset your password", "Password reset", body)
}

func orderItemsTable(order *models.Order) string {
	var rows strings.Builder
	for _, item := range order.OrderItems {
		fmt.Fprintf(&rows, `
                                    <tr>
                                        <td style="padding: 10px; border: 1px solid #ddd;">%s</td>
                                        <td style="padding: 10px; border: 1px solid #ddd;">%d</td>
                                        <td style="padding: 10px; border: 1px solid #ddd;">$%.2f</td>
                                        <td style="padding: 10px; border: 1px solid #ddd;">$%.2f</td>
                                    </tr>`, html.EscapeString(item.Name), item.Quantity, item.Price, item.Price*float64(item.Quantity))
	}

	return fmt.Sprintf(`
                            <table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
                                <thead>
                                    <tr style="background-color: #f0f0f0;">
                                        <th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Product</th>
                                        <th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Qty</th>
                                        <th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Price</th>
                                        <th style="padding: 10px; text-align: left; border: 1px solid #ddd;">Total</th>
                                    </tr>
                                </thead>
                                <tbody>%s
                                </tbody>
                                <tfoot>
                                    <tr>
                                        <td colspan="3" style="padding: 10px; text-align: right; font-weight: bold;">Total:</td>
                                        <td style="padding: 10px; font-weight: bold;">$%.2f</td>
                                    </tr>
                                </tfoot>
                            </table>`, rows.String(), order.TotalPrice)
}

func orderConfirmationHTML(order *models.Order) string {
	addr := order.ShippingAddress
	body := fmt.Sprintf(`
                            <p style="margin: 0 0 20px 0; color: #333333; font-size: 16px;">Thank you for your order <strong>%s</strong>.</p>%s
                            <h3 style="margin: 20px 0 10px 0; color: #333333;">Shipping to</h3>
                            <p style="margin: 0; color: #555555; font-size: 14px; line-height: 1.6;">%s<br>%s<br>%s, %s<br>%s</p>`,
		order.OrderNumber, orderItemsTable(order),
		html.EscapeString(addr.FullName), html.EscapeString(addr.Address),
		html.EscapeString(addr.City), html.EscapeString(addr.State), html.EscapeString(addr.Country))
	return layout("Order confirmation", "Order confirmed", body)
}
