package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/soundrise/phonics_coach/database"
	"github.com/soundrise/phonics_coach/models"
	"github.com/soundrise/phonics_coach/services"
)

func ListCourses(c *fiber.Ctx) error {
	var courses []models.Course
	database.DB.Where("is_active = ?", true).Order("price asc").Find(&courses)
	return c.JSON(courses)
}

func ListTestimonials(c *fiber.Ctx) error {
	var testimonials []models.Testimonial
	database.DB.Where("is_active = ?", true).Order("created_at desc").Find(&testimonials)
	return c.JSON(testimonials)
}

func ListInstructors(c *fiber.Ctx) error {
	var instructors []models.Instructor
	database.DB.Where("is_active = ?", true).Find(&instructors)
	return c.JSON(instructors)
}

// PreviewCoupon lets the pricing page show a discounted price before
// checkout. Display only: the charged amount is recomputed server-side at
// order creation with the same coupon math.
func PreviewCoupon(c *fiber.Ctx) error {
	code := c.Query("code")
	courseID := c.Query("course_id")
	if code == "" || courseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "code and course_id are required"})
	}

	parsedID, err := uuid.Parse(courseID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid course ID format"})
	}

	var course models.Course
	if err := database.DB.First(&course, "id = ? AND is_active = ?", parsedID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Active course not found"})
	}

	coupon := services.LookupCoupon(code)
	total, discount := services.ApplyCoupon(course.Price, coupon)

	return c.JSON(fiber.Map{
		"valid":    coupon != nil,
		"price":    course.Price,
		"discount": discount,
		"total":    total,
		"currency": course.Currency,
	})
}

type CourseRequest struct {
	Name          string  `json:"name" validate:"required,min=2"`
	Description   string  `json:"description"`
	Level         string  `json:"level"`
	Price         float64 `json:"price" validate:"required,gt=0"`
	Currency      string  `json:"currency" validate:"required,iso4217"`
	DurationWeeks int     `json:"duration_weeks" validate:"omitempty,gt=0"`
}

func AdminCreateCourse(c *fiber.Ctx) error {
	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	course := models.Course{
		Name:          req.Name,
		Description:   req.Description,
		Level:         req.Level,
		Price:         req.Price,
		Currency:      req.Currency,
		DurationWeeks: req.DurationWeeks,
	}

	if err := database.DB.Create(&course).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create course"})
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

func AdminUpdateCourse(c *fiber.Ctx) error {
	courseID := c.Params("courseId")
	var course models.Course
	if err := database.DB.First(&course, "id = ?", courseID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	var req CourseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	course.Name = req.Name
	course.Description = req.Description
	course.Level = req.Level
	course.Price = req.Price
	course.Currency = req.Currency
	course.DurationWeeks = req.DurationWeeks
	database.DB.Save(&course)

	return c.JSON(course)
}

func AdminToggleCourse(c *fiber.Ctx) error {
	courseID := c.Params("courseId")
	type Request struct {
		IsActive bool `json:"is_active"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	result := database.DB.Model(&models.Course{}).Where("id = ?", courseID).Update("is_active", req.IsActive)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update course status"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}

	return c.JSON(fiber.Map{"message": "Course status updated successfully."})
}

type CouponRequest struct {
	Code          string  `json:"code" validate:"required,min=3,max=20"`
	DiscountType  string  `json:"discount_type" validate:"required,oneof=percent flat"`
	DiscountValue float64 `json:"discount_value" validate:"required,gt=0"`
	ExpiresAt     *string `json:"expires_at,omitempty" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func AdminCreateCoupon(c *fiber.Ctx) error {
	var req CouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	if req.DiscountType == "percent" && req.DiscountValue > 100 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Percent discount cannot exceed 100"})
	}

	coupon := models.Coupon{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
	}
	if req.ExpiresAt != nil {
		expires, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid expires_at format"})
		}
		coupon.ExpiresAt = &expires
	}

	if err := database.DB.Create(&coupon).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Coupon code already exists"})
	}
	return c.Status(fiber.StatusCreated).JSON(coupon)
}

func AdminListCoupons(c *fiber.Ctx) error {
	var coupons []models.Coupon
	database.DB.Order("created_at desc").Find(&coupons)
	return c.JSON(coupons)
}

func AdminToggleCoupon(c *fiber.Ctx) error {
	couponID := c.Params("couponId")
	type Request struct {
		IsActive bool `json:"is_active"`
	}
	var req Request
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}

	result := database.DB.Model(&models.Coupon{}).Where("id = ?", couponID).Update("is_active", req.IsActive)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update coupon status"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coupon not found"})
	}

	return c.JSON(fiber.Map{"message": "Coupon status updated successfully."})
}

type TestimonialRequest struct {
	AuthorName string  `json:"author_name" validate:"required"`
	AuthorRole string  `json:"author_role"`
	Quote      string  `json:"quote" validate:"required,min=10"`
	PhotoURL   *string `json:"photo_url,omitempty"`
	Rating     int     `json:"rating" validate:"omitempty,min=1,max=5"`
}

func AdminCreateTestimonial(c *fiber.Ctx) error {
	var req TestimonialRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	testimonial := models.Testimonial{
		AuthorName: req.AuthorName,
		AuthorRole: req.AuthorRole,
		Quote:      req.Quote,
		PhotoURL:   req.PhotoURL,
		Rating:     req.Rating,
	}
	if testimonial.Rating == 0 {
		testimonial.Rating = 5
	}

	if err := database.DB.Create(&testimonial).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create testimonial"})
	}
	return c.Status(fiber.StatusCreated).JSON(testimonial)
}

func AdminDeleteTestimonial(c *fiber.Ctx) error {
	testimonialID := c.Params("testimonialId")
	result := database.DB.Delete(&models.Testimonial{}, "id = ?", testimonialID)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete testimonial"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Testimonial not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

type InstructorRequest struct {
	FullName string  `json:"full_name" validate:"required"`
	Title    string  `json:"title"`
	Bio      string  `json:"bio"`
	PhotoURL *string `json:"photo_url,omitempty"`
}

func AdminCreateInstructor(c *fiber.Ctx) error {
	var req InstructorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	instructor := models.Instructor{
		FullName: req.FullName,
		Title:    req.Title,
		Bio:      req.Bio,
		PhotoURL: req.PhotoURL,
	}

	if err := database.DB.Create(&instructor).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create instructor"})
	}
	return c.Status(fiber.StatusCreated).JSON(instructor)
}

func AdminUpdateInstructor(c *fiber.Ctx) error {
	instructorID := c.Params("instructorId")
	var instructor models.Instructor
	if err := database.DB.First(&instructor, "id = ?", instructorID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Instructor not found"})
	}

	var req InstructorRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	instructor.FullName = req.FullName
	instructor.Title = req.Title
	instructor.Bio = req.Bio
	instructor.PhotoURL = req.PhotoURL
	database.DB.Save(&instructor)

	return c.JSON(instructor)
}

func AdminDeleteInstructor(c *fiber.Ctx) error {
	instructorID := c.Params("instructorId")
	result := database.DB.Model(&models.Instructor{}).Where("id = ?", instructorID).Update("is_active", false)
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to deactivate instructor"})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Instructor not found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
