package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/padala-next/internal/geo"
)

var (
	// ErrConfigInvalid 路径规划配置错误
	ErrConfigInvalid = errors.New("routing config invalid")
	// ErrRequestFailed 请求路径规划服务失败
	ErrRequestFailed = errors.New("routing request failed")
	// ErrResponseInvalid 路径规划服务响应异常
	ErrResponseInvalid = errors.New("routing response invalid")
)

const defaultHTTPTimeout = 10 * time.Second

// OSRMClient OSRM 路径规划客户端
type OSRMClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewOSRMClient 创建 OSRM 客户端，httpClient 为空时使用默认超时
func NewOSRMClient(baseURL string, httpClient *http.Client) (*OSRMClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: osrm base_url is required", ErrConfigInvalid)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return &OSRMClient{baseURL: baseURL, httpClient: httpClient}, nil
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
	} `json:"routes"`
}

// Route 查询驾车路线，距离单位米、时长单位秒，转换为公里和分钟
func (c *OSRMClient) Route(ctx context.Context, origin, destination geo.Point) (geo.Leg, error) {
	endpoint := fmt.Sprintf("%s/route/v1/driving/%s;%s?overview=false",
		c.baseURL, formatLngLat(origin), formatLngLat(destination))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return geo.Leg{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return geo.Leg{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return geo.Leg{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode != http.StatusOK {
		return geo.Leg{}, fmt.Errorf("%w: status %d", ErrResponseInvalid, resp.StatusCode)
	}

	var parsed osrmResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return geo.Leg{}, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if parsed.Code != "Ok" {
		return geo.Leg{}, fmt.Errorf("%w: code=%s %s", ErrResponseInvalid, parsed.Code, parsed.Message)
	}
	if len(parsed.Routes) == 0 {
		return geo.Leg{}, geo.ErrRouteNotFound
	}
	route := parsed.Routes[0]
	return geo.Leg{
		DistanceKm:  route.Distance / 1000,
		DurationMin: route.Duration / 60,
	}, nil
}

func formatLngLat(p geo.Point) string {
	return strconv.FormatFloat(p.Lng, 'f', 6, 64) + "," + strconv.FormatFloat(p.Lat, 'f', 6, 64)
}
