// Package wellknown models the OpenID Connect discovery document
// (/.well-known/openid-configuration) a relying party reads from its STS.
//
// # Usage
//
//	resp, err := httpClient.Get(wellknown.DiscoveryURL("https://sts.example.com"))
//	...
//	config, err := wellknown.ParseOpenIDConfiguration(body)
//	if err != nil {
//	    return err
//	}
//	if config.HasError() {
//	    return fmt.Errorf("discovery refused: %s", config.ErrorText())
//	}
//	fmt.Println(config.TokenEndpoint)
package wellknown
