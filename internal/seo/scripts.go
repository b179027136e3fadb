package seo

// Page probes evaluated through execute_script. Each returns the payload
// its audit decodes.

const metaTagsScript = `const metaTags = {};

metaTags.title = document.title || '';
metaTags.titleLength = metaTags.title.length;

const descMeta = document.querySelector('meta[name="description"]');
metaTags.description = descMeta?.content || '';
metaTags.descriptionLength = metaTags.description.length;

const keywordsMeta = document.querySelector('meta[name="keywords"]');
metaTags.keywords = keywordsMeta?.content || '';

const canonical = document.querySelector('link[rel="canonical"]');
metaTags.canonical = canonical?.href || '';

const robotsMeta = document.querySelector('meta[name="robots"]');
metaTags.robots = robotsMeta?.content || '';

metaTags.og = {
    title: document.querySelector('meta[property="og:title"]')?.content || '',
    description: document.querySelector('meta[property="og:description"]')?.content || '',
    image: document.querySelector('meta[property="og:image"]')?.content || '',
    url: document.querySelector('meta[property="og:url"]')?.content || '',
    type: document.querySelector('meta[property="og:type"]')?.content || ''
};

metaTags.twitter = {
    card: document.querySelector('meta[name="twitter:card"]')?.content || '',
    title: document.querySelector('meta[name="twitter:title"]')?.content || '',
    description: document.querySelector('meta[name="twitter:description"]')?.content || '',
    image: document.querySelector('meta[name="twitter:image"]')?.content || ''
};

const viewport = document.querySelector('meta[name="viewport"]');
metaTags.viewport = viewport?.content || '';

const charset = document.querySelector('meta[charset]');
metaTags.charset = charset?.getAttribute('charset') || '';

metaTags`

const headingsScript = `const headers = {
    h1: [], h2: [], h3: [], h4: [], h5: [], h6: []
};

for (let i = 1; i <= 6; i++) {
    const elements = document.querySelectorAll('h' + i);
    elements.forEach(el => {
        headers['h' + i].push({
            text: el.textContent.trim(),
            length: el.textContent.trim().length
        });
    });
}

({
    ...headers,
    h1Count: headers.h1.length,
    h2Count: headers.h2.length,
    h3Count: headers.h3.length,
    h4Count: headers.h4.length,
    h5Count: headers.h5.length,
    h6Count: headers.h6.length
})`

const imagesScript = `const images = Array.from(document.querySelectorAll('img')).map(img => ({
    src: img.src,
    alt: img.alt || '',
    hasAlt: !!img.alt,
    width: img.width,
    height: img.height,
    loading: img.loading || 'auto'
}));

({
    images: images,
    totalImages: images.length,
    imagesWithAlt: images.filter(i => i.hasAlt).length,
    imagesWithoutAlt: images.filter(i => !i.hasAlt).length,
    lazyLoadedImages: images.filter(i => i.loading === 'lazy').length
})`

// linksScriptTpl takes the base domain for the internal/external split.
const linksScriptTpl = `const baseDomain = %q;
const links = Array.from(document.querySelectorAll('a')).map(a => ({
    href: a.href,
    text: a.textContent.trim(),
    hasText: !!a.textContent.trim(),
    isExternal: a.hostname !== baseDomain,
    hasNofollow: a.rel.includes('nofollow'),
    opensNewTab: a.target === '_blank',
    hasNoopener: a.rel.includes('noopener')
}));

const externalLinks = links.filter(l => l.isExternal);
const internalLinks = links.filter(l => !l.isExternal);

({
    totalLinks: links.length,
    internalLinks: internalLinks.length,
    externalLinks: externalLinks.length,
    linksWithoutText: links.filter(l => !l.hasText).length,
    externalWithoutNoopener: externalLinks.filter(
        l => l.opensNewTab && !l.hasNoopener
    ).length,
    brokenLinkCandidates: links.filter(
        l => !l.href || l.href === '#' || l.href.startsWith('javascript:')
    ).length
})`

const performanceScript = `const perf = performance.getEntriesByType('navigation')[0] || {};
const resources = performance.getEntriesByType('resource');

({
    loadTime: perf.loadEventEnd - perf.fetchStart,
    domContentLoaded: perf.domContentLoadedEventEnd - perf.fetchStart,
    resourceCount: resources.length,
    totalSize: resources.reduce((sum, r) => sum + (r.transferSize || 0), 0),
    scriptCount: resources.filter(r => r.initiatorType === 'script').length,
    cssCount: resources.filter(r => r.initiatorType === 'css' || r.initiatorType === 'link').length,
    imageCount: resources.filter(r => r.initiatorType === 'img').length,
    fontCount: resources.filter(r => r.name.includes('.woff') || r.name.includes('.ttf')).length
})`

const structuredDataScript = `const jsonLd = Array.from(
    document.querySelectorAll('script[type="application/ld+json"]')
).map(script => {
    try {
        return JSON.parse(script.textContent);
    } catch(e) {
        return null;
    }
}).filter(Boolean);

({
    hasJsonLd: jsonLd.length > 0,
    jsonLdCount: jsonLd.length,
    jsonLdTypes: jsonLd.map(d => d['@type'] || 'Unknown')
})`
