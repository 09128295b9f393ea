package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"

	"parkfinder/pkg/models"
	"parkfinder/pkg/utils"
)

// requestLog tags one tool call
func (s *Server) requestLog(tool string) *logrus.Entry {
	return s.log.WithFields(logrus.Fields{
		"tool":       tool,
		"request_id": uuid.New().String(),
	})
}

// toolError logs err and returns it as a tool-level error result
func toolError(reqLog *logrus.Entry, action string, err error) *mcp.CallToolResult {
	reqLog.WithField("error_type", utils.CategorizeError(err)).Warnf("%s failed: %v", action, err)
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", action, err))
}

// handleListRegions handles the list_regions tool
func (s *Server) handleListRegions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reqLog := s.requestLog("list_regions")
	start := time.Now()

	index, err := s.lister.BuildRegionIndex(ctx)
	if err != nil {
		return toolError(reqLog, "building region index", err), nil
	}

	regions := make([]map[string]interface{}, 0, len(index))
	for _, name := range index.Names() {
		regions = append(regions, map[string]interface{}{
			"name": name,
			"url":  index[name],
		})
	}
	reqLog.WithField("duration", time.Since(start)).Info("Listed regions")

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"regions":       regions,
		"total_regions": len(regions),
	})), nil
}

// handleListSites handles the list_sites tool
func (s *Server) handleListSites(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	region := request.GetString("region", "")
	if region == "" {
		return mcp.NewToolResultError("region parameter is required"), nil
	}
	reqLog := s.requestLog("list_sites").WithField("region", region)

	regionURL, sites, errResult := s.sitesFor(ctx, reqLog, region)
	if errResult != nil {
		return errResult, nil
	}

	entries := make([]map[string]interface{}, 0, len(sites))
	for i, site := range sites {
		entries = append(entries, map[string]interface{}{
			"number":      i + 1,
			"category":    site.Category,
			"name":        site.Name,
			"address":     site.Address,
			"postal_code": site.PostalCode,
			"phone":       site.Phone,
			"info":        site.Info(),
		})
	}
	reqLog.WithField("sites", len(sites)).Info("Listed sites")

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"region":      models.NormalizeRegionName(region),
		"region_url":  regionURL,
		"sites":       entries,
		"total_sites": len(entries),
	})), nil
}

// handleNearbyPlaces handles the nearby_places tool
func (s *Server) handleNearbyPlaces(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reqLog := s.requestLog("nearby_places")

	var site models.Site
	if postal := request.GetString("postal_code", ""); postal != "" {
		site = models.Site{PostalCode: postal}
	} else {
		region := request.GetString("region", "")
		number := request.GetInt("site", 0)
		if region == "" || number == 0 {
			return mcp.NewToolResultError("either postal_code, or region and site, are required"), nil
		}
		_, sites, errResult := s.sitesFor(ctx, reqLog, region)
		if errResult != nil {
			return errResult, nil
		}
		if number < 1 || number > len(sites) {
			return mcp.NewToolResultError(fmt.Sprintf("invalid site number %d: choose 1 to %d", number, len(sites))), nil
		}
		site = sites[number-1]
	}
	reqLog = reqLog.WithField("postal_code", site.PostalCode)

	places, err := s.nearby.Nearby(ctx, site)
	if err != nil {
		return toolError(reqLog, "finding nearby places", err), nil
	}

	lines := make([]string, 0, len(places))
	for _, p := range places {
		lines = append(lines, p.String())
	}
	reqLog.WithField("places", len(places)).Info("Found nearby places")

	result := map[string]interface{}{
		"postal_code":  site.PostalCode,
		"places":       places,
		"summary":      lines,
		"total_places": len(places),
	}
	if site.Name != "" {
		result["site"] = site.Name
	}
	return mcp.NewToolResultText(formatJSON(result)), nil
}

// sitesFor resolves region against the index and lists its sites.
// A non-nil result is the tool error to return.
func (s *Server) sitesFor(ctx context.Context, reqLog *logrus.Entry, region string) (string, []models.Site, *mcp.CallToolResult) {
	index, err := s.lister.BuildRegionIndex(ctx)
	if err != nil {
		return "", nil, toolError(reqLog, "building region index", err)
	}
	regionURL, ok := index.Lookup(region)
	if !ok {
		return "", nil, mcp.NewToolResultError(fmt.Sprintf("unknown region '%s'", region))
	}
	sites, err := s.lister.ListSites(ctx, regionURL)
	if err != nil {
		return "", nil, toolError(reqLog, "listing sites", err)
	}
	return regionURL, sites, nil
}

// formatJSON formats data as an indented JSON string
func formatJSON(data map[string]interface{}) string {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("{\"error\": %q}", err.Error())
	}
	return string(b)
}
