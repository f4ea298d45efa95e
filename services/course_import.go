package services

import (
	"io"
	"strconv"
	"strings"

	apperrors "github.com/itsmessk/infoziant-courses/errors"
	"github.com/itsmessk/infoziant-courses/logger"
	"github.com/itsmessk/infoziant-courses/models"

	"github.com/xuri/excelize/v2"
)

// ParseCoursesWorkbook reads an uploaded Excel workbook and returns the
// courses it contains. Column order is detected from the header row, rows
// missing a title or a valid price are skipped.
func ParseCoursesWorkbook(r io.Reader) ([]models.Course, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, apperrors.NewInvalidParamsError("Could not read the uploaded workbook")
	}
	defer f.Close()

	sheetList := f.GetSheetList()
	if len(sheetList) == 0 {
		return nil, apperrors.NewInvalidParamsError("Workbook has no sheets")
	}

	rows, err := f.GetRows(sheetList[0])
	if err != nil {
		return nil, apperrors.NewInvalidParamsError("Could not read the uploaded workbook")
	}
	if len(rows) < 2 {
		return nil, apperrors.NewInvalidParamsError("Workbook has no course rows")
	}

	cols := detectCourseColumns(rows[0])
	if cols["title"] < 0 || cols["price"] < 0 {
		return nil, apperrors.NewInvalidParamsError("Workbook is missing a title or price column")
	}

	var courses []models.Course
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if len(row) == 0 {
			continue
		}

		title := cellValue(row, cols["title"])
		priceStr := cellValue(row, cols["price"])
		if title == "" || priceStr == "" {
			logger.Debug("Skipping workbook row %d: missing title or price", i+1)
			continue
		}

		price, err := strconv.ParseInt(priceStr, 10, 64)
		if err != nil || price < 0 {
			logger.Debug("Skipping workbook row %d: invalid price %q", i+1, priceStr)
			continue
		}

		course := models.Course{
			Title:       title,
			Description: cellValue(row, cols["description"]),
			Instructor:  cellValue(row, cols["instructor"]),
			Image:       cellValue(row, cols["image"]),
			Level:       cellValue(row, cols["level"]),
			Duration:    cellValue(row, cols["duration"]),
			Price:       price,
			IsActive:    1,
		}
		if course.Level == "" {
			course.Level = "Beginner"
		}
		courses = append(courses, course)
	}

	if len(courses) == 0 {
		return nil, apperrors.NewInvalidParamsError("Workbook contained no valid course rows")
	}
	return courses, nil
}

// detectCourseColumns finds column indices by matching header names.
func detectCourseColumns(headers []string) map[string]int {
	indices := map[string]int{
		"title":       -1,
		"description": -1,
		"instructor":  -1,
		"image":       -1,
		"level":       -1,
		"duration":    -1,
		"price":       -1,
	}

	for i, header := range headers {
		lower := strings.ToLower(strings.TrimSpace(header))

		switch {
		case lower == "title" || lower == "course title" || lower == "name" || lower == "course name":
			indices["title"] = i
		case lower == "description" || lower == "details" || lower == "about":
			indices["description"] = i
		case lower == "instructor" || lower == "teacher" || lower == "trainer":
			indices["instructor"] = i
		case lower == "image" || lower == "image url" || lower == "thumbnail":
			indices["image"] = i
		case lower == "level" || lower == "difficulty":
			indices["level"] = i
		case lower == "duration" || lower == "course duration":
			indices["duration"] = i
		case lower == "price" || lower == "amount" || lower == "fee":
			indices["price"] = i
		}
	}

	return indices
}

// cellValue safely extracts a cell from a row.
func cellValue(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[index])
}
