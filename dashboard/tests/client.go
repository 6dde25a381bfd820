package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"

	"referral_platform/dashboard/auth"
	"referral_platform/dashboard/schema"
	"referral_platform/dashboard/services"

	"github.com/go-chi/chi/v5"
)

type client struct {
	api    chi.Router
	token  string
	userId int64
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)

func jsonError(err error) error {
	return fmt.Errorf("json encode/decode error: %w", err)
}

type NoBody struct{}

func do[T any](c *client, method, endpoint string, body []byte) (T, error) {
	req := httptest.NewRequest(method, endpoint, bytes.NewReader(body))
	if c.token != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %v", c.token))
	}
	w := httptest.NewRecorder()
	c.api.ServeHTTP(w, req)

	var data T

	res := w.Result()
	switch res.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return data, ErrUnauthorized
	case http.StatusForbidden:
		return data, ErrForbidden
	default:
		return data, fmt.Errorf("%v %v failed with status %d and res '%v'", method, endpoint, res.StatusCode, w.Body.String())
	}

	if err := json.NewDecoder(res.Body).Decode(&data); err != nil {
		return data, err
	}
	return data, nil
}

func get[T any](c *client, endpoint string) (T, error) {
	return do[T](c, "GET", endpoint, nil)
}

func post[T any](c *client, endpoint string, body []byte) (T, error) {
	return do[T](c, "POST", endpoint, body)
}

func put[T any](c *client, endpoint string, body []byte) (T, error) {
	return do[T](c, "PUT", endpoint, body)
}

func deleteReq(c *client, endpoint string) error {
	_, err := do[NoBody](c, "DELETE", endpoint, nil)
	return err
}

// getRaw is for non-json responses, e.g. the csv export.
func (c *client) getRaw(endpoint string) (string, http.Header, error) {
	req := httptest.NewRequest("GET", endpoint, nil)
	if c.token != "" {
		req.Header.Add("Authorization", fmt.Sprintf("Bearer %v", c.token))
	}
	w := httptest.NewRecorder()
	c.api.ServeHTTP(w, req)

	res := w.Result()
	switch res.StatusCode {
	case http.StatusOK:
		return w.Body.String(), res.Header, nil
	case http.StatusUnauthorized:
		return "", nil, ErrUnauthorized
	case http.StatusForbidden:
		return "", nil, ErrForbidden
	default:
		return "", nil, fmt.Errorf("get %v failed with status %d and res '%v'", endpoint, res.StatusCode, w.Body.String())
	}
}

type loginResponse struct {
	User        auth.Identity `json:"user"`
	AccessToken string        `json:"access_token"`
}

func (c *client) login(login loginInfo) error {
	body, err := json.Marshal(login)
	if err != nil {
		return jsonError(err)
	}

	data, err := post[loginResponse](c, "/user/login", body)
	if err != nil {
		return err
	}

	c.token = data.AccessToken
	c.userId = data.User.UserId

	return nil
}

func (c *client) session() (auth.Identity, error) {
	return get[auth.Identity](c, "/user/session")
}

func (c *client) createUser(name, email, password, role string) (int64, error) {
	body, err := json.Marshal(map[string]string{
		"name": name, "email": email, "password": password, "role": role,
	})
	if err != nil {
		return 0, jsonError(err)
	}

	data, err := post[map[string]int64](c, "/user/create", body)
	if err != nil {
		return 0, err
	}
	return data["user_id"], nil
}

func (c *client) listUsers() ([]services.UserInfo, error) {
	return get[[]services.UserInfo](c, "/user/list")
}

func (c *client) userInfo(userId int64) (services.UserInfo, error) {
	return get[services.UserInfo](c, fmt.Sprintf("/user/%v", userId))
}

func (c *client) deleteUser(userId int64) error {
	return deleteReq(c, fmt.Sprintf("/user/%v", userId))
}

func (c *client) setRole(userId int64, role string) error {
	_, err := put[NoBody](c, fmt.Sprintf("/user/%v/role", userId), []byte(fmt.Sprintf(`{"role": "%v"}`, role)))
	return err
}

func (c *client) setPermissions(userId int64, permissions []string) error {
	body, err := json.Marshal(map[string][]string{"permissions": permissions})
	if err != nil {
		return jsonError(err)
	}
	_, err = put[NoBody](c, fmt.Sprintf("/user/%v/permissions", userId), body)
	return err
}

func (c *client) setUserStatus(userId int64, status string) error {
	_, err := put[NoBody](c, fmt.Sprintf("/user/%v/status", userId), []byte(fmt.Sprintf(`{"status": "%v"}`, status)))
	return err
}

func (c *client) listRoles() ([]services.RoleInfo, error) {
	return get[[]services.RoleInfo](c, "/role/list")
}

func (c *client) permissionCatalog() ([]schema.Permission, error) {
	return get[[]schema.Permission](c, "/role/permissions")
}

func (c *client) createRole(name, displayName string, permissions []string) (int64, error) {
	body, err := json.Marshal(map[string]any{
		"name": name, "display_name": displayName, "permissions": permissions,
	})
	if err != nil {
		return 0, jsonError(err)
	}

	data, err := post[map[string]int64](c, "/role/create", body)
	if err != nil {
		return 0, err
	}
	return data["role_id"], nil
}

func (c *client) deleteRole(roleId int64) error {
	return deleteReq(c, fmt.Sprintf("/role/%v", roleId))
}

func (c *client) createForm(form map[string]any) (int64, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return 0, jsonError(err)
	}

	data, err := post[map[string]int64](c, "/form/create", body)
	if err != nil {
		return 0, err
	}
	return data["form_id"], nil
}

func (c *client) listForms() ([]services.FormInfo, error) {
	return get[[]services.FormInfo](c, "/form/list")
}

func (c *client) formInfo(formId int64) (services.FormInfo, error) {
	return get[services.FormInfo](c, fmt.Sprintf("/form/%v", formId))
}

func (c *client) setFormStatus(formId int64, status string) error {
	_, err := put[NoBody](c, fmt.Sprintf("/form/%v/status", formId), []byte(fmt.Sprintf(`{"status": "%v"}`, status)))
	return err
}

func (c *client) visit(affiliateId string) (map[string]json.RawMessage, error) {
	return get[map[string]json.RawMessage](c, fmt.Sprintf("/referral/visit/%v", affiliateId))
}

func (c *client) visitLink(affiliateId string) (schema.ReferralLink, error) {
	res, err := c.visit(affiliateId)
	if err != nil {
		return schema.ReferralLink{}, err
	}

	var link schema.ReferralLink
	if err := json.Unmarshal(res["link"], &link); err != nil {
		return schema.ReferralLink{}, jsonError(err)
	}
	return link, nil
}

func (c *client) submit(fields map[string]string) (int64, error) {
	body, err := json.Marshal(fields)
	if err != nil {
		return 0, jsonError(err)
	}

	data, err := post[map[string]int64](c, "/referral/submit", body)
	if err != nil {
		return 0, err
	}
	return data["submission_id"], nil
}

func (c *client) myLinks() ([]schema.ReferralLink, error) {
	return get[[]schema.ReferralLink](c, "/referral/links")
}

func (c *client) allLinks() ([]schema.ReferralLink, error) {
	return get[[]schema.ReferralLink](c, "/referral/links/all")
}

func (c *client) createLink() (schema.ReferralLink, error) {
	return post[schema.ReferralLink](c, "/referral/links", nil)
}

func (c *client) listSubmissions(query string) ([]schema.FormSubmission, error) {
	return get[[]schema.FormSubmission](c, "/submission/list"+query)
}

func (c *client) setSubmissionStatus(submissionId int64, status string) error {
	_, err := put[NoBody](c, fmt.Sprintf("/submission/%v/status", submissionId), []byte(fmt.Sprintf(`{"status": "%v"}`, status)))
	return err
}

func (c *client) deleteSubmission(submissionId int64) error {
	return deleteReq(c, fmt.Sprintf("/submission/%v", submissionId))
}

func (c *client) exportSubmissions(query string) (string, http.Header, error) {
	return c.getRaw("/submission/export" + query)
}

func (c *client) branding() (schema.BrandingSettings, error) {
	return get[schema.BrandingSettings](c, "/branding/")
}

func (c *client) saveBranding(settings map[string]any) (int64, error) {
	body, err := json.Marshal(settings)
	if err != nil {
		return 0, jsonError(err)
	}

	data, err := post[map[string]int64](c, "/branding/", body)
	if err != nil {
		return 0, err
	}
	return data["branding_id"], nil
}

func (c *client) analyticsSummary() (services.AnalyticsSummary, error) {
	return get[services.AnalyticsSummary](c, "/analytics/summary")
}
