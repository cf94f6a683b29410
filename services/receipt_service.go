package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	config "github.com/soundrise/phonics_coach/configs"
	"github.com/soundrise/phonics_coach/database"
	"github.com/soundrise/phonics_coach/models"
	"github.com/soundrise/phonics_coach/notifications"
	"github.com/soundrise/phonics_coach/utils"
)

// GenerateEnrollmentReceipt renders and uploads a PDF receipt for a paid
// enrollment, then emails the link. Runs best-effort after the payment is
// already settled; nothing user-facing waits on it.
func GenerateEnrollmentReceipt(payment models.Payment) {
	if payment.RegistrationID == nil {
		return
	}

	var registration models.Registration
	if err := database.DB.Preload("Course").First(&registration, "id = ?", payment.RegistrationID).Error; err != nil {
		log.Printf("🔥 Failed to load registration for receipt %s: %v", payment.ReferenceID, err)
		return
	}

	htmlData, err := generateReceiptHTML(registration, payment)
	if err != nil {
		log.Printf("🔥 Failed to generate receipt HTML: %v", err)
		return
	}

	pdfBytes, err := generatePDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to generate receipt PDF: %v", err)
		return
	}

	uploadURL, err := uploadReceiptToCloudinary(pdfBytes, payment.ReferenceID)
	if err != nil {
		log.Printf("🔥 Failed to upload receipt to Cloudinary: %v", err)
		return
	}

	payment.ReceiptURL = &uploadURL
	if err := database.DB.Model(&models.Payment{}).Where("id = ?", payment.ID).
		Update("receipt_url", uploadURL).Error; err != nil {
		log.Printf("🔥 Failed to save receipt URL for %s: %v", payment.ReferenceID, err)
		return
	}

	go notifications.SendEmail(
		registration.FullName,
		registration.Email,
		"Your SoundRise Phonics Receipt",
		fmt.Sprintf("<h1>Payment Received</h1><p>Thank you for enrolling in %s. Your receipt is ready.</p><p><a href='%s'>Download Receipt</a></p><p>Reference: %s</p>", registration.Course.Name, uploadURL, payment.ReferenceID),
	)

	log.Printf("✅ Generated and uploaded receipt for %s.", payment.ReferenceID)
}

func generateReceiptHTML(registration models.Registration, payment models.Payment) (string, error) {
	tmpl, err := template.ParseFiles("templates/receipt.html")
	if err != nil {
		return "", err
	}

	data := struct {
		StudentName string
		CourseName  string
		Amount      string
		Discount    string
		Currency    string
		ReferenceID string
		ReceiptNo   string
		Provider    string
		PaidOn      string
	}{
		ReceiptNo:   utils.GenerateReferenceNumber(),
		StudentName: registration.FullName,
		CourseName:  registration.Course.Name,
		Amount:      fmt.Sprintf("%.2f", payment.Amount),
		Discount:    fmt.Sprintf("%.2f", payment.DiscountAmount),
		Currency:    payment.Currency,
		ReferenceID: payment.ReferenceID,
		Provider:    payment.Provider,
		PaidOn:      time.Now().Format("January 2, 2006"),
	}

	var renderedHTML bytes.Buffer
	if err := tmpl.Execute(&renderedHTML, data); err != nil {
		return "", err
	}
	return renderedHTML.String(), nil
}

func generatePDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadReceiptToCloudinary(fileBytes []byte, referenceID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("receipts/%s_%s", referenceID, uuid.New().String()),
		Folder:       "phonics_coach_receipts",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
