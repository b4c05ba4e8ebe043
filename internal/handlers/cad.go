package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/istoking/illicitrp-site/internal/database"
	"github.com/istoking/illicitrp-site/internal/models"
	"github.com/istoking/illicitrp-site/internal/services"
	"github.com/istoking/illicitrp-site/pkg/utils"
)

// CAD lookup handlers against the game database. All routes are
// permission-gated by the router; each successful operation writes an
// audit row.

func SearchCitizens(c *gin.Context) {
	name := strings.TrimSpace(c.Query("name"))
	citizenid := strings.TrimSpace(c.Query("citizenid"))

	var rows []models.CitizenRow
	var err error
	if citizenid != "" {
		err = database.DB.Where("citizenid = ?", citizenid).Limit(1).Find(&rows).Error
	} else if name != "" {
		// charinfo is JSON stored as text in most QBCore setups
		pattern := "%\"firstname\":\"" + utils.EscapeSQLWildcards(utils.TruncateString(name, 100)) + "%"
		err = database.DB.Where("charinfo LIKE ?", pattern).Limit(25).Find(&rows).Error
	} else {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_query"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	target := citizenid
	if target == "" {
		target = name
	}
	services.Audit(database.DB, c.GetString("discordId"), "SEARCH_CITIZEN", target, c.ClientIP(), gin.H{"count": len(rows)})

	results := make([]models.Citizen, 0, len(rows))
	for _, r := range rows {
		results = append(results, r.Normalize())
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func GetCitizen(c *gin.Context) {
	citizenid := c.Param("citizenid")

	var rows []models.CitizenRow
	if err := database.DB.Where("citizenid = ?", citizenid).Limit(1).Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	services.Audit(database.DB, c.GetString("discordId"), "VIEW_CITIZEN", citizenid, c.ClientIP(), gin.H{})

	if len(rows) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"citizen": rows[0].Normalize()})
}

func SearchVehicles(c *gin.Context) {
	plate := strings.TrimSpace(c.Query("plate"))
	citizenid := strings.TrimSpace(c.Query("citizenid"))

	if plate == "" && citizenid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_query"})
		return
	}

	var rows []models.VehicleRow
	var err error
	if plate != "" {
		err = database.DB.Where("plate = ?", plate).Limit(10).Find(&rows).Error
	} else {
		err = database.DB.Where("citizenid = ?", citizenid).Limit(50).Find(&rows).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	// Join ps-mdt vehicle flags by plate.
	flagsByPlate := map[string]models.VehicleFlags{}
	var plates []string
	for _, r := range rows {
		if r.Plate != "" {
			plates = append(plates, r.Plate)
		}
	}
	if len(plates) > 0 {
		var flags []models.VehicleFlags
		if err := database.DB.Where("plate IN ?", plates).Find(&flags).Error; err == nil {
			for _, f := range flags {
				flagsByPlate[f.Plate] = f
			}
		}
	}

	target := plate
	if target == "" {
		target = citizenid
	}
	services.Audit(database.DB, c.GetString("discordId"), "SEARCH_VEHICLE", target, c.ClientIP(), gin.H{"count": len(rows)})

	results := make([]models.Vehicle, 0, len(rows))
	for _, r := range rows {
		v := models.Vehicle{VehicleRow: r}
		if f, ok := flagsByPlate[r.Plate]; ok {
			flag := f
			v.Flags = &flag
		}
		results = append(results, v)
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func SearchProperties(c *gin.Context) {
	citizenid := strings.TrimSpace(c.Query("citizenid"))
	house := strings.TrimSpace(c.Query("house"))

	if citizenid == "" && house == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_query"})
		return
	}

	const propertySelect = "SELECT ph.house, ph.citizenid, ph.identifier, ph.keyholders, " +
		"hl.label, hl.coords, hl.owned, hl.price, hl.tier, hl.garage " +
		"FROM player_houses ph LEFT JOIN houselocations hl ON hl.name = ph.house "

	var rows []models.PropertyRow
	var err error
	if house != "" {
		err = database.DB.Raw(propertySelect+"WHERE ph.house = ? LIMIT 20", house).Scan(&rows).Error
	} else {
		err = database.DB.Raw(propertySelect+"WHERE ph.citizenid = ? LIMIT 50", citizenid).Scan(&rows).Error
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	target := house
	if target == "" {
		target = citizenid
	}
	services.Audit(database.DB, c.GetString("discordId"), "SEARCH_PROPERTY", target, c.ClientIP(), gin.H{"count": len(rows)})
	c.JSON(http.StatusOK, gin.H{"results": rows})
}

func SearchWarrants(c *gin.Context) {
	citizenid := strings.TrimSpace(c.Query("citizenid"))
	if citizenid == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_query"})
		return
	}

	// ps-mdt stores warrant as assorted truthy strings
	var rows []models.WarrantRow
	err := database.DB.
		Where("cid = ? AND warrant IN ?", citizenid, []string{"1", "true", "TRUE", "yes", "YES"}).
		Order("id DESC").
		Limit(50).
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	services.Audit(database.DB, c.GetString("discordId"), "VIEW_WARRANTS", citizenid, c.ClientIP(), gin.H{"count": len(rows)})
	c.JSON(http.StatusOK, gin.H{"results": rows})
}

func SearchReports(c *gin.Context) {
	qtext := strings.TrimSpace(c.Query("q"))
	if qtext == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_query"})
		return
	}

	pattern := utils.SanitizeSearchQuery(qtext)
	var rows []models.ReportRow
	err := database.DB.
		Select("id, author, title, type, time, jobtype").
		Where("title LIKE ? OR author LIKE ?", pattern, pattern).
		Order("id DESC").
		Limit(50).
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	services.Audit(database.DB, c.GetString("discordId"), "SEARCH_REPORTS", qtext, c.ClientIP(), gin.H{"count": len(rows)})
	c.JSON(http.StatusOK, gin.H{"results": rows})
}

func CreateReport(c *gin.Context) {
	var input struct {
		Title            string `json:"title"`
		Type             string `json:"type"`
		Details          string `json:"details"`
		Tags             string `json:"tags"`
		Officersinvolved string `json:"officersinvolved"`
		Civsinvolved     string `json:"civsinvolved"`
		Gallery          string `json:"gallery"`
		Jobtype          string `json:"jobtype"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Title == "" || input.Details == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	author := c.GetString("discordName")
	if author == "" {
		author = "CAD"
	}
	if input.Type == "" {
		input.Type = "Report"
	}
	if input.Jobtype == "" {
		input.Jobtype = "police"
	}

	report := models.ReportRow{
		Author:           author,
		Title:            input.Title,
		Type:             input.Type,
		Details:          input.Details,
		Tags:             input.Tags,
		Officersinvolved: input.Officersinvolved,
		Civsinvolved:     input.Civsinvolved,
		Gallery:          input.Gallery,
		Time:             nowMillisString(),
		Jobtype:          input.Jobtype,
	}
	if err := database.DB.Create(&report).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	services.Audit(database.DB, c.GetString("discordId"), "CREATE_REPORT", utils.TruncateString(input.Title, 64), c.ClientIP(), gin.H{})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func SearchBolos(c *gin.Context) {
	qtext := strings.TrimSpace(c.Query("q"))
	if qtext == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_query"})
		return
	}

	pattern := utils.SanitizeSearchQuery(qtext)
	var rows []models.BoloRow
	err := database.DB.
		Select("id, author, title, plate, owner, individual, time, jobtype").
		Where("title LIKE ? OR plate LIKE ? OR owner LIKE ? OR individual LIKE ?", pattern, pattern, pattern, pattern).
		Order("id DESC").
		Limit(50).
		Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	services.Audit(database.DB, c.GetString("discordId"), "SEARCH_BOLOS", qtext, c.ClientIP(), gin.H{"count": len(rows)})
	c.JSON(http.StatusOK, gin.H{"results": rows})
}

func CreateBolo(c *gin.Context) {
	var input struct {
		Title            string `json:"title"`
		Plate            string `json:"plate"`
		Owner            string `json:"owner"`
		Individual       string `json:"individual"`
		Detail           string `json:"detail"`
		Tags             string `json:"tags"`
		Gallery          string `json:"gallery"`
		Officersinvolved string `json:"officersinvolved"`
		Jobtype          string `json:"jobtype"`
	}
	if err := c.ShouldBindJSON(&input); err != nil || input.Title == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_fields"})
		return
	}

	author := c.GetString("discordName")
	if author == "" {
		author = "CAD"
	}
	if input.Jobtype == "" {
		input.Jobtype = "police"
	}

	bolo := models.BoloRow{
		Author:           author,
		Title:            input.Title,
		Plate:            input.Plate,
		Owner:            input.Owner,
		Individual:       input.Individual,
		Detail:           input.Detail,
		Tags:             input.Tags,
		Gallery:          input.Gallery,
		Officersinvolved: input.Officersinvolved,
		Time:             nowMillisString(),
		Jobtype:          input.Jobtype,
	}
	if err := database.DB.Create(&bolo).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	services.Audit(database.DB, c.GetString("discordId"), "CREATE_BOLO", utils.TruncateString(input.Title, 64), c.ClientIP(), gin.H{})
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ps-mdt stores times as epoch-millisecond strings.
func nowMillisString() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}
